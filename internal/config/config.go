// Package config loads graphlint settings and mapping override files.
//
// Settings come from, in increasing precedence: defaults, an optional
// graphlint.yaml, GRAPHLINT_* environment variables (a .env file is
// loaded into the environment first) and command-line flags, which the
// CLI applies on top of Load's result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/graphlint/internal/backend"
)

// EnvPrefix prefixes every environment override, e.g. GRAPHLINT_NEO4J_URI.
const EnvPrefix = "GRAPHLINT"

// Config holds every setting the CLI needs.
type Config struct {
	Neo4j       Neo4jConfig `mapstructure:"neo4j"`
	Backend     string      `mapstructure:"backend"`
	Strict      bool        `mapstructure:"strict"`
	MappingFile string      `mapstructure:"mapping_file"`
	HistoryDB   string      `mapstructure:"history_db"`
	Concurrency int         `mapstructure:"concurrency"`
	NoColor     bool        `mapstructure:"no_color"`
}

// Neo4jConfig locates the database to validate.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// Database selects a named database; empty means the server default.
	Database string `mapstructure:"database"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("backend", "cypher")
	v.SetDefault("strict", false)
	v.SetDefault("mapping_file", "")
	v.SetDefault("history_db", "")
	v.SetDefault("concurrency", 1)
	v.SetDefault("no_color", false)
}

// Load reads configuration. An empty path looks for graphlint.yaml in the
// working directory and tolerates its absence; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("graphlint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values Load cannot type-check.
func (c *Config) Validate() error {
	if _, err := backend.Get(c.Backend); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri must not be empty")
	}
	return nil
}

// LoadDotEnv loads KEY=value files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
