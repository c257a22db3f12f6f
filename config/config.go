/*
Package config loads server configuration from an optional YAML file.

PURPOSE:
  One struct for everything the server needs at startup. Missing file
  means defaults; command-line flags override whatever was loaded.

FILE FORMAT (config.yaml):
  addr: ":8080"
  database: "capacity.db"
  log_level: "info"
  cors_origins:
    - "http://localhost:5173"

SEE ALSO:
  - cmd/server/main.go: Flag overrides and startup
*/
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds server settings.
type Config struct {
	Addr        string   `yaml:"addr"`
	Database    string   `yaml:"database"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr:     ":8080",
		Database: "capacity.db",
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path or a
// missing file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}
