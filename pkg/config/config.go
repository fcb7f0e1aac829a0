// Package config loads the optional YAML settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/cjungmann/ate/pkg/action"
	"github.com/cjungmann/ate/pkg/logging"
)

// Config holds the settings shared by every ate command.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	ValueName   string `yaml:"value_name"`
	ArrayName   string `yaml:"array_name"`
	MaxElements int    `yaml:"max_elements"`
	HistoryFile string `yaml:"history_file"`
	KeepGoing   bool   `yaml:"keep_going"`
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:  "warn",
		ValueName: action.DefaultValueName,
		ArrayName: action.DefaultArrayName,
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads settings from r over the defaults.
func Parse(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks names and limits.
func (c Config) Validate() error {
	if _, err := logging.Option(c.LogLevel); err != nil {
		return err
	}
	if !identifier.MatchString(c.ValueName) {
		return fmt.Errorf("invalid value_name '%s'", c.ValueName)
	}
	if !identifier.MatchString(c.ArrayName) {
		return fmt.Errorf("invalid array_name '%s'", c.ArrayName)
	}
	if c.MaxElements < 0 {
		return fmt.Errorf("max_elements must not be negative")
	}
	return nil
}

// Action returns the session settings.
func (c Config) Action() action.Config {
	return action.Config{
		ValueName:   c.ValueName,
		ArrayName:   c.ArrayName,
		MaxElements: c.MaxElements,
	}
}

// String renders the settings as YAML.
func (c Config) String() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
