/*
 * Omeka S Deploy - Component Registry
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/omekactl/omekactl/internal/errors"
)

//go:embed components.yaml
var defaultTable []byte

// Kind identifies what a component installs as
type Kind string

const (
	KindModule Kind = "module"
	KindTheme  Kind = "theme"
)

// Host identifies the source forge an archive is fetched from
type Host string

const (
	HostGitHub Host = "github"
	HostGitLab Host = "gitlab"
)

// ComponentEntry describes one installable module or theme
type ComponentEntry struct {
	Name         string   `yaml:"name"`
	Kind         Kind     `yaml:"kind"`
	Repo         string   `yaml:"repo"`
	Revision     string   `yaml:"revision"`
	Dependencies []string `yaml:"dependencies,omitempty"`

	// Host is set during load from the table the entry appears in
	Host Host `yaml:"-"`
}

// Registry is the immutable component table, loaded once at process start
type Registry struct {
	entries map[string]ComponentEntry
	names   []string
}

// tableFile is the on-disk shape: one table per source host
type tableFile struct {
	GitHub []ComponentEntry `yaml:"github"`
	GitLab []ComponentEntry `yaml:"gitlab"`
}

// Load reads the registry from path, or from the embedded default table
// when path is empty.
func Load(path string) (*Registry, error) {
	data := defaultTable
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapRegistryError(err, "registry_load",
				fmt.Sprintf("failed to read registry file: %s", path))
		}
	}
	return Parse(data)
}

// Parse builds a Registry from YAML table data. A component name appearing
// in both host tables (or twice in one) is a configuration error.
func Parse(data []byte) (*Registry, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapRegistryError(err, "registry_load",
			"failed to parse registry YAML")
	}

	reg := &Registry{entries: make(map[string]ComponentEntry)}

	add := func(host Host, entries []ComponentEntry) error {
		for _, entry := range entries {
			entry.Host = host
			if err := validateEntry(entry); err != nil {
				return err
			}
			if existing, ok := reg.entries[entry.Name]; ok {
				return errors.NewRegistryError("registry_load",
					fmt.Sprintf("component %q declared for both %s and %s",
						entry.Name, existing.Host, host))
			}
			reg.entries[entry.Name] = entry
			reg.names = append(reg.names, entry.Name)
		}
		return nil
	}

	if err := add(HostGitHub, file.GitHub); err != nil {
		return nil, err
	}
	if err := add(HostGitLab, file.GitLab); err != nil {
		return nil, err
	}

	sort.Strings(reg.names)
	return reg, nil
}

func validateEntry(entry ComponentEntry) error {
	if entry.Name == "" {
		return errors.NewRegistryError("registry_load", "component with empty name")
	}
	if entry.Repo == "" {
		return errors.NewRegistryError("registry_load",
			fmt.Sprintf("component %q has no repository path", entry.Name))
	}
	if entry.Revision == "" {
		return errors.NewRegistryError("registry_load",
			fmt.Sprintf("component %q has no default revision", entry.Name))
	}
	if entry.Kind != KindModule && entry.Kind != KindTheme {
		return errors.NewRegistryError("registry_load",
			fmt.Sprintf("component %q has unknown kind %q", entry.Name, entry.Kind))
	}
	return nil
}

// Lookup returns the entry for name. Matching is case-sensitive and exact.
func (r *Registry) Lookup(name string) (ComponentEntry, error) {
	entry, ok := r.entries[name]
	if !ok {
		return ComponentEntry{}, errors.NewRegistryError("registry_lookup",
			fmt.Sprintf("unknown component: %s", name))
	}
	return entry, nil
}

// Names returns all registered component names, sorted
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered components
func (r *Registry) Len() int {
	return len(r.entries)
}
