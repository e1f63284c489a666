package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the demo client settings. Flags override file values.
type Config struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Mode           string `toml:"mode"`
	SpacingMillis  int    `toml:"spacing_ms"`
	ResponseWaitMS int    `toml:"response_wait_ms"`
}

func defaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           19765,
		Mode:           "demo",
		SpacingMillis:  1000,
		ResponseWaitMS: 3000,
	}
}

func loadConfig(path string) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return config, fmt.Errorf("load config %s: %w", path, err)
	}
	return config, config.validate()
}

func (config Config) validate() error {
	switch config.Mode {
	case "demo", "test", "interactive":
	default:
		return fmt.Errorf("invalid mode %q (want demo, test, or interactive)", config.Mode)
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port %d", config.Port)
	}
	return nil
}

// URL returns the ws:// endpoint the configuration points at.
func (config Config) URL() string {
	return fmt.Sprintf("ws://%s:%d", config.Host, config.Port)
}
