package fedcoord

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const (
	DefCoordinatorURL  = "http://localhost:7070"
	DefTLSVerification = false
	DefConfigPath      = "config.toml"
)

// Config is the client side configuration of the CLI.
type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
}

type CoordinatorConfig struct {
	URL             string `toml:"url"`
	TLSVerification bool   `toml:"tls_verification"`
}

func DefaultConfig() Config {
	return Config{
		Coordinator: CoordinatorConfig{
			URL:             DefCoordinatorURL,
			TLSVerification: DefTLSVerification,
		},
	}
}

// LoadConfig reads a TOML file. Missing values fall back to the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := tree.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Coordinator.URL == "" {
		cfg.Coordinator.URL = DefCoordinatorURL
	}

	return cfg, nil
}
