// Package config loads and validates the doimint HCL configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Environment variables that override file-borne secrets so credentials can
// stay out of checked-in configuration.
const (
	EnvDataCiteAuth = "DOIMINT_DATACITE_AUTH"
	EnvDBPassword   = "DOIMINT_DB_PASSWORD"
)

// Config is the top-level doimint configuration.
type Config struct {
	// ExportDir is the directory metadata documents are written to.
	ExportDir string `hcl:"export_dir"`

	// ExcludeIDs lists publication IDs that must never be picked up by the
	// pending scan. Defaults to the legacy record registered out of band.
	ExcludeIDs []int `hcl:"exclude_ids,optional"`

	Postgres *Postgres `hcl:"postgres,block"`
	DataCite *DataCite `hcl:"datacite,block"`
	ShortDOI *ShortDOI `hcl:"shortdoi,block"`
}

// Postgres holds the relational store connection settings.
type Postgres struct {
	Host     string `hcl:"host"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname"`
	SSLMode  string `hcl:"sslmode,optional"`
}

// DataCite holds registration API settings. AuthToken is the base64
// user:password value passed opaquely as a Basic credential.
type DataCite struct {
	BaseURL        string `hcl:"base_url,optional"`
	AuthToken      string `hcl:"auth_token,optional"`
	Prefix         string `hcl:"prefix,optional"`
	TimeoutSeconds int    `hcl:"timeout_seconds,optional"`
}

// ShortDOI holds alias service settings.
type ShortDOI struct {
	BaseURL        string `hcl:"base_url,optional"`
	TimeoutSeconds int    `hcl:"timeout_seconds,optional"`
}

// Load reads the configuration file at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Postgres != nil {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
	}
	if c.DataCite == nil {
		c.DataCite = &DataCite{}
	}
	if c.DataCite.TimeoutSeconds == 0 {
		c.DataCite.TimeoutSeconds = 30
	}
	if c.ShortDOI == nil {
		c.ShortDOI = &ShortDOI{}
	}
	if c.ShortDOI.TimeoutSeconds == 0 {
		c.ShortDOI.TimeoutSeconds = 30
	}
}

func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv(EnvDataCiteAuth); ok && val != "" {
		c.DataCite.AuthToken = val
	}
	if val, ok := os.LookupEnv(EnvDBPassword); ok && val != "" && c.Postgres != nil {
		c.Postgres.Password = val
	}
}

// Validate checks that all settings required to run the workflow are present.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ExportDir, validation.Required),
		validation.Field(&c.Postgres, validation.Required),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(c.Postgres,
		validation.Field(&c.Postgres.Host, validation.Required),
		validation.Field(&c.Postgres.User, validation.Required),
		validation.Field(&c.Postgres.DBName, validation.Required),
		validation.Field(&c.Postgres.Port, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	if err := validation.ValidateStruct(c.DataCite,
		validation.Field(&c.DataCite.AuthToken,
			validation.Required.Error(
				fmt.Sprintf("cannot be blank (set auth_token or %s)", EnvDataCiteAuth))),
	); err != nil {
		return fmt.Errorf("datacite: %w", err)
	}

	return nil
}

// ExcludedPublicationIDs returns the configured exclusion list as unsigned
// IDs; an empty configuration defers to the model default.
func (c *Config) ExcludedPublicationIDs() []uint {
	ids := make([]uint, 0, len(c.ExcludeIDs))
	for _, id := range c.ExcludeIDs {
		if id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

// DataCiteTimeout returns the registration client timeout.
func (c *Config) DataCiteTimeout() time.Duration {
	return time.Duration(c.DataCite.TimeoutSeconds) * time.Second
}

// ShortDOITimeout returns the alias client timeout.
func (c *Config) ShortDOITimeout() time.Duration {
	return time.Duration(c.ShortDOI.TimeoutSeconds) * time.Second
}
