// Package config loads the optional YAML server configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Server configures the serve command.
type Server struct {
	// Port the HTTP listener binds to.
	Port string `yaml:"port" validate:"required,numeric"`
	// Root is the name of the root workflow.
	Root string `yaml:"root" validate:"required"`
}

// DefaultServer is used when no file is given.
func DefaultServer() Server {
	return Server{
		Port: "8080",
		Root: "main",
	}
}

// LoadServer reads and validates a server config file. Fields left empty in
// the file keep their defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: invalid yaml in %s: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config: invalid values in %s: %w", path, err)
	}
	return cfg, nil
}
