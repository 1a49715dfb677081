/*
 * Omeka S Deploy - Entry Point
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package main

import (
	"fmt"
	"os"

	"github.com/omekactl/omekactl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
