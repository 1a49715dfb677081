/*
 * Omeka S Deploy - Database Connectivity
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/omekactl/omekactl/internal/config"
	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/logger"
)

// DSN builds the MySQL connection string from configuration
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// PingFunc checks database connectivity once
type PingFunc func(ctx context.Context) error

// Ping opens a connection to dsn and verifies it responds
func Ping(ctx context.Context, dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

// Wait polls ping on a fixed interval until it succeeds or attempts are
// exhausted. Exhaustion is fatal to the caller.
func Wait(ctx context.Context, ping PingFunc, interval time.Duration, attempts int) error {
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ping(ctx); err == nil {
			logger.WithFields(logger.Fields{
				"attempt": attempt,
			}).Info("Database is reachable")
			return nil
		} else {
			logger.WithFields(logger.Fields{
				"attempt":  attempt,
				"attempts": attempts,
				"error":    err,
			}).Debug("Database not ready yet")
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return errors.WrapDatabaseError(ctx.Err(), "wait_database",
				"cancelled while waiting for database")
		case <-time.After(interval):
		}
	}

	return errors.NewDatabaseError("wait_database",
		fmt.Sprintf("database unreachable after %d attempts", attempts))
}

// WriteINI writes the key=value database connection descriptor consumed by
// the installed application. An existing file is never overwritten.
func WriteINI(cfg *config.Config, path string) error {
	if _, err := os.Stat(path); err == nil {
		logger.WithFields(logger.Fields{
			"path": path,
		}).Debug("Database descriptor already present, leaving untouched")
		return nil
	}

	contents := fmt.Sprintf("user     = %s\npassword = %s\ndbname   = %s\nhost     = %s\nport     = %d\n",
		cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBHost, cfg.DBPort)

	if err := os.WriteFile(path, []byte(contents), 0640); err != nil {
		return errors.WrapFileSystemError(err, "write_database_ini",
			fmt.Sprintf("failed to write database descriptor: %s", path))
	}

	return nil
}
