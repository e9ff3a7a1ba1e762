//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-salesdw.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for pgedge-salesdw.
type Config struct {
	// Warehouse holds the PostgreSQL connection parameters.
	Warehouse WarehouseConfig `mapstructure:"warehouse"`

	// DataDir is the directory holding sales.csv, customers.csv and products.csv.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load stage.
	Load LoadConfig `mapstructure:"load"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`

	// Report holds configuration for the report subcommand.
	Report ReportConfig `mapstructure:"report"`
}

// WarehouseConfig describes how to reach the warehouse database.
type WarehouseConfig struct {
	// Connection is a full PostgreSQL connection string. When set it
	// overrides the individual fields below.
	Connection string `mapstructure:"connection"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// SSLMode is passed through as the sslmode connection parameter.
	SSLMode string `mapstructure:"sslmode"`
}

// LoadConfig holds configuration for the load stage.
type LoadConfig struct {
	// BatchSize is the number of rows per multi-row INSERT statement.
	BatchSize int `mapstructure:"batch_size"`
}

// GenerateConfig holds configuration for sample data generation.
type GenerateConfig struct {
	Customers int `mapstructure:"customers"`
	Products  int `mapstructure:"products"`
	Sales     int `mapstructure:"sales"`

	// Seed makes output reproducible. Zero picks a random seed.
	Seed uint64 `mapstructure:"seed"`

	// DirtyRatio is the fraction of rows that get a data quality defect.
	DirtyRatio float64 `mapstructure:"dirty_ratio"`
}

// ReportConfig holds configuration for the report subcommand.
type ReportConfig struct {
	// TopCustomers is how many customers the revenue ranking shows.
	TopCustomers int `mapstructure:"top_customers"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "data_warehouse",
			User:     "postgres",
			Password: "postgres",
			SSLMode:  "prefer",
		},
		DataDir:  filepath.Join("data", "raw"),
		LogLevel: "info",
		Load: LoadConfig{
			BatchSize: 1000,
		},
		Generate: GenerateConfig{
			Customers:  200,
			Products:   50,
			Sales:      5000,
			DirtyRatio: 0.05,
		},
		Report: ReportConfig{
			TopCustomers: 10,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-salesdw.yaml
// 3. ~/.config/pgedge-salesdw/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-salesdw")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-salesdw"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// ConnString returns the PostgreSQL connection string for the warehouse.
func (w WarehouseConfig) ConnString() string {
	if w.Connection != "" {
		return w.Connection
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(w.Host, strconv.Itoa(w.Port)),
		Path:   "/" + w.Database,
	}
	if w.Password != "" {
		u.User = url.UserPassword(w.User, w.Password)
	} else {
		u.User = url.User(w.User)
	}
	if w.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {w.SSLMode}}.Encode()
	}
	return u.String()
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Warehouse.Connection != "" {
		return nil
	}
	if c.Warehouse.Host == "" {
		return fmt.Errorf("warehouse host is required")
	}
	if c.Warehouse.Port < 1 || c.Warehouse.Port > 65535 {
		return fmt.Errorf("warehouse port must be between 1 and 65535")
	}
	if c.Warehouse.Database == "" {
		return fmt.Errorf("warehouse database is required")
	}
	if c.Warehouse.User == "" {
		return fmt.Errorf("warehouse user is required")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Load.BatchSize < 1 {
		return fmt.Errorf("load.batch_size must be at least 1")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Generate.Customers < 1 || c.Generate.Products < 1 {
		return fmt.Errorf("generate needs at least one customer and one product")
	}
	if c.Generate.Sales < 0 {
		return fmt.Errorf("generate.sales must be non-negative")
	}
	if c.Generate.DirtyRatio < 0 || c.Generate.DirtyRatio > 1 {
		return fmt.Errorf("generate.dirty_ratio must be between 0 and 1")
	}
	return nil
}
