package queryable

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds queryable settings that can be shared between test suites
type Config struct {
	// PatternMatch enables rewriting of the provider's pattern operators
	PatternMatch bool `json:"pattern_match" yaml:"pattern_match"`

	// PatternMethods overrides the operator names rewritten (default: ILike, Like)
	PatternMethods []string `json:"pattern_methods,omitempty" yaml:"pattern_methods,omitempty"`

	// StrictRemoval makes bulk deletes without a removal callback fail
	StrictRemoval bool `json:"strict_removal" yaml:"strict_removal"`

	// LogLevel caps the level of execution events (zerolog level names)
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// DefaultConfig returns the settings used when no Config is applied
func DefaultConfig() Config {
	return Config{}
}

// LoadConfig decodes a YAML Config
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode queryable config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile decodes the YAML Config at path
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open queryable config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}
