package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Client is the terminal favorites client configuration.
type Client struct {
	BaseURL string `yaml:"baseURL"`
	Token   string `yaml:"token"`
	Limit   int    `yaml:"limit"`
	// UserID defaults to the token subject.
	UserID string `yaml:"userID"`
	// Session is a gateway session cookie; with it the client follows the
	// gateway event stream.
	Session string `yaml:"session"`
}

const defaultClientLimit = 5

// DefaultClientPath is ~/.wongnok/client.yaml, or empty when the home
// directory is unknown.
func DefaultClientPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wongnok", "client.yaml")
}

// LoadClient reads path. A missing file yields the defaults.
func LoadClient(path string) (Client, error) {
	cfg := Client{BaseURL: "http://localhost:3000", Limit: defaultClientLimit}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read client config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse client config %s: %w", path, err)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Limit < 1 {
		cfg.Limit = defaultClientLimit
	}
	return cfg, nil
}
