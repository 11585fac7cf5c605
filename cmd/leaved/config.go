/*
config.go - TOML configuration for the leaved daemon

PURPOSE:
  Loads server configuration from a TOML file, with environment variable
  overrides for the values that change between deployments. A missing
  config file is fine, defaults cover local development.

PRECEDENCE (lowest to highest):
  1. Built-in defaults
  2. TOML config file (-config flag)
  3. Environment variables (LEAVED_PORT, LEAVED_DB)

EXAMPLE leaved.toml:

  port = 8080
  db = "./data/leave.db"

  [reset]
  orgs = ["acme"]
  allocation = "25"
  carry_forward = true
  check_interval = "1h"

SEE ALSO:
  - main.go: Flag wiring and command setup
*/
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Config is the daemon configuration.
type Config struct {
	Port int    `toml:"port"`
	DB   string `toml:"db"`

	Reset ResetConfig `toml:"reset"`
}

// ResetConfig configures the automated yearly allocation reset.
type ResetConfig struct {
	Orgs          []string `toml:"orgs"`
	Allocation    string   `toml:"allocation"`
	CarryForward  bool     `toml:"carry_forward"`
	CheckInterval duration `toml:"check_interval"`
}

// duration lets TOML carry values like "1h30m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func defaultConfig() Config {
	return Config{
		Port: 8080,
		DB:   "leave.db",
	}
}

// loadConfig reads the TOML file (if present) and applies env overrides.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("LEAVED_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LEAVED_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("LEAVED_DB"); v != "" {
		cfg.DB = v
	}

	// A malformed allocation must not slide through as zero days: the
	// scheduler would reset every user in the configured orgs to nothing.
	if len(cfg.Reset.Orgs) > 0 {
		if _, err := decimal.NewFromString(cfg.Reset.Allocation); err != nil {
			return Config{}, fmt.Errorf("invalid [reset] allocation %q: %w", cfg.Reset.Allocation, err)
		}
	}

	return cfg, nil
}
