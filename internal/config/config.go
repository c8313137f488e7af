// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads ofxbundle tool settings from defaults, an optional YAML
// file and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/ofxbundle/internal/logging"
)

// Default values. Keys equal the flag names that override them.
const (
	DefaultLogFormat     = "text"
	DefaultLogLevel      = "info"
	DefaultRenders       = 3
	DefaultConcurrency   = 4
	DefaultMemoryRetries = 2
)

// Config is the merged tool configuration.
type Config struct {
	LogFormat   string `koanf:"log-format"`
	LogLevel    string `koanf:"log-level"`
	MetricsAddr string `koanf:"metrics-addr"`
	Renders     int    `koanf:"renders"`
	Concurrency int    `koanf:"concurrency"`
	// Filter is a glob over plugin identifiers, '.' separated. Empty matches all.
	Filter string `koanf:"filter"`
	// LuaScript replaces the built-in luafx script when set.
	LuaScript     string `koanf:"lua-script"`
	MemoryRetries int    `koanf:"memory-retries"`
}

var defaults = map[string]any{
	"log-format":     DefaultLogFormat,
	"log-level":      DefaultLogLevel,
	"metrics-addr":   "",
	"renders":        DefaultRenders,
	"concurrency":    DefaultConcurrency,
	"filter":         "",
	"lua-script":     "",
	"memory-retries": DefaultMemoryRetries,
}

// Load merges defaults, the YAML file at path (skipped when path is empty) and
// any flags in fs that were set explicitly. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ").With("path", path).Wrapf(err, "load config file")
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_READ").Wrapf(err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := oops.Code("CONFIG_INVALID")

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid.With("key", "log-format").
			Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return invalid.With("key", "log-level").Wrap(err)
	}
	if c.Renders < 1 {
		return invalid.With("key", "renders").Errorf("renders must be at least 1, got %d", c.Renders)
	}
	if c.Concurrency < 1 {
		return invalid.With("key", "concurrency").
			Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MemoryRetries < 0 {
		return invalid.With("key", "memory-retries").
			Errorf("memory-retries must not be negative, got %d", c.MemoryRetries)
	}
	if _, err := c.Matcher(); err != nil {
		return invalid.With("key", "filter").Wrap(err)
	}
	return nil
}

// Matcher compiles Filter. An empty filter matches every identifier.
func (c *Config) Matcher() (glob.Glob, error) {
	return CompileFilter(c.Filter)
}

type matchAll struct{}

func (matchAll) Match(string) bool { return true }

// CompileFilter compiles a plugin identifier glob with '.' as the segment
// separator, so "net.example.*" matches "net.example.blur" but not
// "net.example.fx.blur".
func CompileFilter(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return matchAll{}, nil
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	return g, nil
}
