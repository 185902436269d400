package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = ".passport/config.yaml"
	defaultEnvFile    = ".env"
	envPrefix         = "PASSPORT_"
)

// Config holds the settings every command resolves before it runs.
type Config struct {
	Site      string `yaml:"site"`
	Out       string `yaml:"out"`
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
}

func defaultConfig() Config {
	return Config{
		Site:      "docs",
		Out:       "dist",
		Addr:      "127.0.0.1:8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// loadProjectConfig reads the YAML config file at path.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	var cfg Config
	if len(doc.Content) == 0 {
		return &cfg, nil
	}
	if root := doc.Content[0]; root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse %s: line %d: expected a mapping of settings", path, root.Line)
	}
	if err := doc.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// loadDotEnv seeds the process environment from path. Variables already set
// win over the file. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// envConfig reads PASSPORT_* variables through getenv.
func envConfig(getenv func(string) string) Config {
	return Config{
		Site:      getenv(envPrefix + "SITE"),
		Out:       getenv(envPrefix + "OUT"),
		Addr:      getenv(envPrefix + "ADDR"),
		LogLevel:  getenv(envPrefix + "LOG_LEVEL"),
		LogFormat: getenv(envPrefix + "LOG_FORMAT"),
		LogFile:   getenv(envPrefix + "LOG_FILE"),
	}
}

// resolveConfig applies the fallback chain, highest priority first:
//  1. Explicit flag values (non-empty fields of flags)
//  2. PASSPORT_* environment variables
//  3. The config file at path
//  4. Built-in defaults
func resolveConfig(flags Config, path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	file, err := loadProjectConfig(path)
	if err != nil {
		return cfg, err
	}
	if file != nil {
		cfg.overlay(*file)
	}
	cfg.overlay(envConfig(getenv))
	cfg.overlay(flags)
	return cfg, nil
}

// overlay copies every non-empty field of o onto c.
func (c *Config) overlay(o Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Site, o.Site)
	set(&c.Out, o.Out)
	set(&c.Addr, o.Addr)
	set(&c.LogLevel, o.LogLevel)
	set(&c.LogFormat, o.LogFormat)
	set(&c.LogFile, o.LogFile)
}
