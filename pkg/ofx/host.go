// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ofx

import "unsafe"

// Standard suite names a host may provide through FetchSuite.
const (
	PropertySuite    = "OfxPropertySuite"
	ImageEffectSuite = "OfxImageEffectSuite"
	MemorySuite      = "OfxMemorySuite"
)

// Handle is an opaque, host-owned instance handle. The dispatch core passes it
// through without looking inside.
type Handle unsafe.Pointer

// PropertySetHandle is an opaque, host-owned property set.
type PropertySetHandle unsafe.Pointer

// Host is the table of services the host installs through the set-host entry
// point. Plugins may keep a reference to it for their whole lifetime.
type Host struct {
	// Properties describes the host itself.
	Properties PropertySetHandle
	// FetchSuite returns the named suite at the given version, or nil when the
	// host does not provide it.
	FetchSuite func(name string, version int) unsafe.Pointer
}

// Suite fetches a suite from the host, returning nil if the host has no
// FetchSuite function or does not provide the suite.
func (h *Host) Suite(name string, version int) unsafe.Pointer {
	if h == nil || h.FetchSuite == nil {
		return nil
	}
	return h.FetchSuite(name, version)
}
