// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ofx

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// APIVersion is the version of the plugin API a plugin is written against.
type APIVersion int

// PluginVersion is the major/minor version a plugin reports to the host.
type PluginVersion struct {
	Major uint32
	Minor uint32
}

// String renders the version as "major.minor".
func (v PluginVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Semver returns the version as a semantic version with a zero patch level.
func (v PluginVersion) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), 0, "", "")
}

// ParsePluginVersion parses "1", "1.2" or "1.2.0". A non-zero patch level or a
// prerelease tag is rejected because the host only carries major and minor.
func ParsePluginVersion(s string) (PluginVersion, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return PluginVersion{}, oops.With("version", s).Wrapf(err, "invalid plugin version")
	}
	if sv.Patch() != 0 || sv.Prerelease() != "" {
		return PluginVersion{}, oops.With("version", s).Errorf("plugin version only carries major.minor")
	}
	if sv.Major() > 1<<32-1 || sv.Minor() > 1<<32-1 {
		return PluginVersion{}, oops.With("version", s).Errorf("plugin version out of range")
	}
	return PluginVersion{Major: uint32(sv.Major()), Minor: uint32(sv.Minor())}, nil
}
