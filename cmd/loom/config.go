package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// configFile is the project file every command looks for in the
// working directory.
const configFile = "loom.yaml"

// Config describes one loom project. Commands read it from loom.yaml
// and apply LOOM_* environment overrides on top, so the file stays
// checked in while environments tweak single values.
type Config struct {
	// Name identifies the project in scaffolded files and logs.
	Name string `yaml:"name" env:"LOOM_NAME"`

	// Host and Port form the preview server listen address.
	Host string `yaml:"host" env:"LOOM_HOST"`
	Port int    `yaml:"port" env:"LOOM_PORT"`

	// Templates is the directory holding the htmlview tree
	// (layouts/, pages/, partials/).
	Templates string `yaml:"templates" env:"LOOM_TEMPLATES"`

	// Static is the directory served under /static. Empty disables it.
	Static string `yaml:"static" env:"LOOM_STATIC"`

	// Debug enables verbose error pages and template hot-reload.
	Debug bool `yaml:"debug" env:"LOOM_DEBUG"`

	// Routes is the application's route table, cross-referenced by
	// `loom check` so template requests can be validated without
	// loading the application.
	Routes []RouteEntry `yaml:"routes,omitempty"`
}

// RouteEntry is one row of the check route table.
type RouteEntry struct {
	Method  string `yaml:"method"`
	Pattern string `yaml:"pattern"`
}

func defaultConfig() *Config {
	return &Config{
		Name:      "loom-app",
		Host:      "localhost",
		Port:      8080,
		Templates: "views",
		Static:    "static",
	}
}

// loadConfig reads the project file when present and applies LOOM_*
// environment overrides. A missing file is not an error; defaults and
// environment carry the config alone.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}
	return cfg, nil
}

// write stores the config as the project file inside dir.
func (c *Config) write(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, configFile), data, 0o644)
}
