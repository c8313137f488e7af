// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package manifest

import (
	"fmt"
	"strconv"

	"github.com/holomush/ofxbundle/pkg/ofx/registry"
)

// Mismatch is one difference between a manifest and a built registry.
type Mismatch struct {
	Index  int
	Module string
	Field  string
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%d:%s %s: want %s, got %s", m.Index, m.Module, m.Field, m.Want, m.Got)
}

// Verify compares the manifest against registry descriptors position by
// position and returns every difference found. An empty result means the
// bundle exports exactly what the manifest describes.
func Verify(m *Manifest, descs []registry.Descriptor) []Mismatch {
	var out []Mismatch

	n := max(len(m.Plugins), len(descs))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(descs):
			p := m.Plugins[i]
			out = append(out, Mismatch{Index: i, Module: p.Module, Field: "presence", Want: "registered", Got: "missing"})
			continue
		case i >= len(m.Plugins):
			d := descs[i]
			out = append(out, Mismatch{Index: i, Module: d.ModuleName, Field: "presence", Want: "absent", Got: "registered"})
			continue
		}

		p, d := m.Plugins[i], descs[i]
		if p.Module != d.ModuleName {
			out = append(out, Mismatch{Index: i, Module: p.Module, Field: "module", Want: p.Module, Got: d.ModuleName})
		}
		if p.Identifier != d.DisplayName {
			out = append(out, Mismatch{Index: i, Module: p.Module, Field: "identifier", Want: p.Identifier, Got: d.DisplayName})
		}
		if p.APIVersion != 0 && p.APIVersion != int(d.APIVersion) {
			out = append(out, Mismatch{
				Index: i, Module: p.Module, Field: "api-version",
				Want: strconv.Itoa(p.APIVersion), Got: strconv.Itoa(int(d.APIVersion)),
			})
		}
		if c := p.Constraint(); c != nil && !c.Check(d.PluginVersion.Semver()) {
			out = append(out, Mismatch{Index: i, Module: p.Module, Field: "version", Want: p.Version, Got: d.PluginVersion.String()})
		}
	}
	return out
}
