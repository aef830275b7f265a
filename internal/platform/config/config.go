package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	defaultSQLitePath     = "data/library.db"
	defaultLoanPeriodDays = 14
)

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	// sqlite
	Path string `yaml:"path"`
	// mysql
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type LibraryConfig struct {
	LoanPeriodDays int `yaml:"loan_period_days"`
	// GuardActiveLoans refuses to delete a book or reader that still has unreturned loans.
	GuardActiveLoans bool `yaml:"guard_active_loans"`
}

type Config struct {
	Version string         `yaml:"version"`
	Mode    string         `yaml:"mode"`
	DB      DatabaseConfig `yaml:"database"`
	Library LibraryConfig  `yaml:"library"`
}

func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = DriverSQLite
	}
	if c.DB.Driver == DriverSQLite && c.DB.Path == "" {
		c.DB.Path = defaultSQLitePath
	}
	if c.DB.Driver == DriverMySQL && c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Library.LoanPeriodDays == 0 {
		c.Library.LoanPeriodDays = defaultLoanPeriodDays
	}
}

func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("config: mode must be dev or release, got %q", c.Mode)
	}
	switch c.DB.Driver {
	case DriverSQLite:
	case DriverMySQL:
		if c.DB.Host == "" || c.DB.DBName == "" {
			return fmt.Errorf("config: mysql requires host and dbname")
		}
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.DB.Driver)
	}
	if c.Library.LoanPeriodDays < 0 {
		return fmt.Errorf("config: loan_period_days must not be negative")
	}
	return nil
}
