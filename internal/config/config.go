// Package config loads project configuration from cascade.yaml, environment
// variables, and CLI flags.
package config

import (
	"fmt"

	"github.com/cascade-data/cascade/internal/adapter"
	"github.com/cascade-data/cascade/internal/model"
)

// Default locations relative to the project root.
const (
	DefaultModelsDir = "models"
	DefaultTargetDir = "target"
)

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// Config is the fully resolved project configuration.
type Config struct {
	// ProjectRoot is the directory containing cascade.yaml. Set by the
	// loader, not by the file itself.
	ProjectRoot string `koanf:"-"`

	ModelsDir string         `koanf:"models_dir"`
	TargetDir string         `koanf:"target_dir"`
	Sources   []string       `koanf:"sources"`
	Verbose   bool           `koanf:"verbose"`
	Database  DatabaseConfig `koanf:"database"`
}

// AdapterConfig converts the database section into adapter settings.
func (c *Config) AdapterConfig() adapter.Config {
	return adapter.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Database: c.Database.Database,
		Username: c.Database.Username,
		Password: c.Database.Password,
		SSLMode:  c.Database.SSLMode,
	}
}

// SourceRelations parses the declared source relations.
func (c *Config) SourceRelations() ([]model.Relation, error) {
	out := make([]model.Relation, 0, len(c.Sources))
	for _, s := range c.Sources {
		rel, err := model.ParseRelation(s)
		if err != nil {
			return nil, fmt.Errorf("invalid source %q: %w", s, err)
		}
		out = append(out, rel)
	}
	return out, nil
}
