// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package manifest describes the plugins a bundle is expected to export and
// checks a built registry against that description.
package manifest

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Manifest represents a bundle.yaml file.
type Manifest struct {
	Bundle  string   `json:"bundle" yaml:"bundle" jsonschema:"minLength=1"`
	Plugins []Plugin `json:"plugins" yaml:"plugins" jsonschema:"minItems=1"`
}

// Plugin is one expected plugin, listed in registration order.
type Plugin struct {
	Module     string `json:"module" yaml:"module" jsonschema:"pattern=^[a-z][a-z0-9_]*$"`
	Identifier string `json:"identifier" yaml:"identifier" jsonschema:"minLength=1"`
	APIVersion int    `json:"api-version,omitempty" yaml:"api-version,omitempty" jsonschema:"minimum=1"`
	// Version is a semver constraint such as "^1.0" or ">= 1.2, < 2".
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	constraint *semver.Constraints
}

var modulePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Parse validates data against the manifest schema, decodes it and checks the
// constraints the schema cannot express.
func Parse(data []byte) (*Manifest, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code("MANIFEST_INVALID").Wrapf(err, "invalid YAML")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks module names, uniqueness and version constraints.
func (m *Manifest) Validate() error {
	invalid := oops.Code("MANIFEST_INVALID")
	if m.Bundle == "" {
		return invalid.Errorf("bundle is required")
	}
	if len(m.Plugins) == 0 {
		return invalid.With("bundle", m.Bundle).Errorf("at least one plugin is required")
	}

	seen := make(map[string]int, len(m.Plugins))
	for i := range m.Plugins {
		p := &m.Plugins[i]
		if !modulePattern.MatchString(p.Module) {
			return invalid.With("index", i).With("module", p.Module).
				Errorf("module must start with a-z and contain only a-z, 0-9 and underscores")
		}
		if prev, dup := seen[p.Module]; dup {
			return invalid.With("index", i).With("module", p.Module).With("previous", prev).
				Errorf("module listed twice")
		}
		seen[p.Module] = i

		if p.Identifier == "" {
			return invalid.With("index", i).With("module", p.Module).Errorf("identifier is required")
		}
		if p.Version != "" {
			c, err := semver.NewConstraint(p.Version)
			if err != nil {
				return invalid.With("index", i).With("module", p.Module).With("version", p.Version).
					Wrapf(err, "invalid version constraint")
			}
			p.constraint = c
		}
	}
	return nil
}

// Constraint returns the parsed version constraint, or nil when the plugin
// accepts any version. Only populated after Validate.
func (p *Plugin) Constraint() *semver.Constraints {
	return p.constraint
}
