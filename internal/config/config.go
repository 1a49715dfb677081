/*
 * Omeka S Deploy - Configuration Management
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Application root (the directory Omeka S is installed into)
	AppRoot string `json:"app_root"`

	// Registry configuration
	RegistryFile string `json:"registry_file"`

	// Mode configuration
	Debug   bool `json:"debug"`
	Verbose bool `json:"verbose"`

	// Runtime identity applied to installed trees
	OwnerUID int `json:"owner_uid"`
	OwnerGID int `json:"owner_gid"`

	// Database configuration
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"-"`
	DBName     string `json:"db_name"`

	// Core release source
	CoreRepo string `json:"core_repo"`

	// Docker configuration
	PHPContainerName string `json:"php_container_name"`

	// Source host endpoints (overridable for testing)
	GitHubBaseURL    string `json:"github_base_url"`
	GitHubAPIBaseURL string `json:"github_api_base_url"`
	GitLabBaseURL    string `json:"gitlab_base_url"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	return &Config{
		AppRoot:          "/var/www/html",
		RegistryFile:     "",
		Debug:            false,
		Verbose:          false,
		OwnerUID:         33, // www-data in the Debian PHP images
		OwnerGID:         33,
		DBHost:           "db",
		DBPort:           3306,
		DBUser:           "omeka",
		DBPassword:       "",
		DBName:           "omeka",
		CoreRepo:         "omeka/omeka-s",
		PHPContainerName: "omeka",
		GitHubBaseURL:    "https://github.com",
		GitHubAPIBaseURL: "https://api.github.com",
		GitLabBaseURL:    "https://gitlab.com",
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if root := os.Getenv("OMEKA_ROOT"); root != "" {
		c.AppRoot = root
	}

	if registry := os.Getenv("OMEKA_REGISTRY"); registry != "" {
		c.RegistryFile = registry
	}

	if debug := os.Getenv("OMEKA_DEBUG"); debug == "true" || debug == "1" {
		c.Debug = true
	}

	if uid := os.Getenv("OMEKA_OWNER_UID"); uid != "" {
		if v, err := strconv.Atoi(uid); err == nil {
			c.OwnerUID = v
		}
	}

	if gid := os.Getenv("OMEKA_OWNER_GID"); gid != "" {
		if v, err := strconv.Atoi(gid); err == nil {
			c.OwnerGID = v
		}
	}

	if host := os.Getenv("MYSQL_HOST"); host != "" {
		c.DBHost = host
	}

	if port := os.Getenv("MYSQL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.DBPort = p
		}
	}

	if user := os.Getenv("MYSQL_USER"); user != "" {
		c.DBUser = user
	}

	if password := os.Getenv("MYSQL_PASSWORD"); password != "" {
		c.DBPassword = password
	}

	if name := os.Getenv("MYSQL_DATABASE"); name != "" {
		c.DBName = name
	}

	if repo := os.Getenv("OMEKA_CORE_REPO"); repo != "" {
		c.CoreRepo = repo
	}

	if container := os.Getenv("OMEKA_PHP_CONTAINER"); container != "" {
		c.PHPContainerName = container
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AppRoot == "" {
		return fmt.Errorf("application root cannot be empty")
	}

	if c.DBPort < 1 || c.DBPort > 65535 {
		return fmt.Errorf("invalid database port: %d (must be 1-65535)", c.DBPort)
	}

	if c.CoreRepo == "" {
		return fmt.Errorf("core repository cannot be empty")
	}

	return nil
}

// ModulesDir returns the plugin module installation directory
func (c *Config) ModulesDir() string {
	return filepath.Join(c.AppRoot, "modules")
}

// ThemesDir returns the theme installation directory
func (c *Config) ThemesDir() string {
	return filepath.Join(c.AppRoot, "themes")
}

// FilesDir returns the bulk file-storage directory
func (c *Config) FilesDir() string {
	return filepath.Join(c.AppRoot, "files")
}

// SideloadDir returns the sideload staging directory
func (c *Config) SideloadDir() string {
	return filepath.Join(c.AppRoot, "sideload")
}

// ConfigDir returns the application configuration directory
func (c *Config) ConfigDir() string {
	return filepath.Join(c.AppRoot, "config")
}

// BackupsDir returns the directory holding core-update backup sets
func (c *Config) BackupsDir() string {
	return filepath.Join(c.AppRoot, "backups")
}

// DatabaseINIPath returns the path of the database connection descriptor
func (c *Config) DatabaseINIPath() string {
	return filepath.Join(c.AppRoot, "config", "database.ini")
}

// LocalConfigPath returns the path of the local override configuration
func (c *Config) LocalConfigPath() string {
	return filepath.Join(c.AppRoot, "config", "local.config.php")
}

// CoreMarkerPath returns the file whose presence means the core is installed
func (c *Config) CoreMarkerPath() string {
	return filepath.Join(c.AppRoot, "index.php")
}
