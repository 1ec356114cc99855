package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Policy controls how the batch reacts to a per-item failure.
type Policy string

const (
	// ContinueOnError lets sibling workers run their ranges to completion;
	// only the failing worker stops early.
	ContinueOnError Policy = "continue"

	// AbortOnError cancels the whole batch at the first item failure.
	AbortOnError Policy = "abort"
)

// Config defines configuration for the aviary CLI.
type Config struct {
	OutputDir        string `yaml:"output_dir"`
	Count            int    `yaml:"count"`
	Workers          int    `yaml:"workers"`
	Producer         string `yaml:"producer"`
	Converter        string `yaml:"converter"`
	ProducerDir      string `yaml:"producer_dir"`
	OnError          Policy `yaml:"on_error"`
	KeepIntermediate bool   `yaml:"keep_intermediate"`
	Progress         bool   `yaml:"progress"`
	Publish          string `yaml:"publish"`
	LogLevel         string `yaml:"log_level"`
}

// Default returns a Config with sensible defaults. Workers defaults to the
// detected processor count.
func Default() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		OnError:  ContinueOnError,
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file. Values present in the
// file override defaults; absent values keep them.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	return Default().Merge(fc), nil
}

// LoadFromEnv loads configuration from environment variables. Worker count
// comes from PARALLEL; everything else uses the AVIARY_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PARALLEL: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("AVIARY_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("AVIARY_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse AVIARY_COUNT: %w", err)
		}
		c.Count = n
	}
	if v := os.Getenv("AVIARY_PRODUCER"); v != "" {
		c.Producer = v
	}
	if v := os.Getenv("AVIARY_CONVERTER"); v != "" {
		c.Converter = v
	}
	if v := os.Getenv("AVIARY_PRODUCER_DIR"); v != "" {
		c.ProducerDir = v
	}
	if v := os.Getenv("AVIARY_ON_ERROR"); v != "" {
		c.OnError = Policy(v)
	}
	if v := os.Getenv("AVIARY_KEEP_INTERMEDIATE"); v != "" {
		c.KeepIntermediate = v == "true" || v == "1"
	}
	if v := os.Getenv("AVIARY_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("AVIARY_PUBLISH"); v != "" {
		c.Publish = v
	}
	if v := os.Getenv("AVIARY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("config: output directory is required")
	}
	if c.Count < 1 {
		return errors.New("config: count must be positive")
	}
	if c.Workers < 1 {
		return errors.New("config: workers must be positive")
	}
	switch c.OnError {
	case ContinueOnError, AbortOnError:
	default:
		return fmt.Errorf("config: unknown on_error policy %q", c.OnError)
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.Count != 0 {
		c.Count = override.Count
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Producer != "" {
		c.Producer = override.Producer
	}
	if override.Converter != "" {
		c.Converter = override.Converter
	}
	if override.ProducerDir != "" {
		c.ProducerDir = override.ProducerDir
	}
	if override.OnError != "" {
		c.OnError = override.OnError
	}
	if override.KeepIntermediate {
		c.KeepIntermediate = override.KeepIntermediate
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Publish != "" {
		c.Publish = override.Publish
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	return c
}
