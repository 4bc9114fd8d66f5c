// Package config loads provisioner configuration from a YAML file with
// environment-variable overrides, and decodes catalog files into
// [domain.Catalog] values.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Engine names selectable via [Config.Engine].
const (
	EngineSync        = "sync"
	EngineGoWorkflows = "goworkflows"
	EngineDBOS        = "dbos"
)

// KeyringPassword in [EndpointConfig.Password] means the basic-auth pair
// is looked up in the OS keyring under the endpoint URL instead of being
// stored in the config file.
const KeyringPassword = "keyring"

// EndpointConfig locates the remote management endpoint.
type EndpointConfig struct {
	URL      string `yaml:"url" env:"PATCHWAVE_ENDPOINT_URL"`
	Username string `yaml:"username" env:"PATCHWAVE_ENDPOINT_USERNAME"`
	Password string `yaml:"password" env:"PATCHWAVE_ENDPOINT_PASSWORD"`
}

// Config is the full provisioner configuration. Zero values are filled
// with defaults by [Load]; env vars override file values.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`

	// Standalone selects the local sqlite store instead of the remote
	// endpoint.
	Standalone bool `yaml:"standalone" env:"PATCHWAVE_STANDALONE"`

	// SharePath is the base location joined onto relative package share
	// paths in catalog files.
	SharePath string `yaml:"share_path" env:"PATCHWAVE_SHARE_PATH"`

	// StateDB is the sqlite file holding run history and, in standalone
	// mode, the provisioned objects.
	StateDB string `yaml:"state_db" env:"PATCHWAVE_STATE_DB"`

	// Engine selects the workflow engine: sync, goworkflows, or dbos.
	Engine string `yaml:"engine" env:"PATCHWAVE_ENGINE"`

	// DatabaseURL is the Postgres connection string required by the dbos
	// engine.
	DatabaseURL string `yaml:"database_url" env:"PATCHWAVE_DATABASE_URL"`
}

// Load reads the config file at path, applies environment overrides, and
// fills defaults. An empty path skips the file and uses env plus defaults
// only.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.StateDB == "" {
		cfg.StateDB = "patchwave.db"
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineSync
	}
	return cfg, nil
}

// Validate fails fast on configurations that cannot possibly run.
func (c Config) Validate() error {
	if !c.Standalone && c.Endpoint.URL == "" {
		return fmt.Errorf("endpoint.url is required unless standalone is set")
	}
	switch c.Engine {
	case EngineSync, EngineGoWorkflows:
	case EngineDBOS:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the dbos engine")
		}
	default:
		return fmt.Errorf("unknown engine %q (want %s, %s, or %s)",
			c.Engine, EngineSync, EngineGoWorkflows, EngineDBOS)
	}
	return nil
}
