// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package ofx defines the types shared between the plugin dispatch core and the
// plugins it hosts: status codes, versions, the action catalog, the message
// unions and the Executable contract.
package ofx

// ImageEffectPluginAPI is the API name every plugin in this bundle reports.
const ImageEffectPluginAPI = "OfxImageEffectPluginAPI"

// SetHostFunc is the per-module set-host entry point.
type SetHostFunc func(host *Host)

// MainEntryFunc is the per-module main entry point.
type MainEntryFunc func(action string, handle Handle, inArgs, outArgs PropertySetHandle) Status

// Plugin is the record the host reads when it enumerates plugins. A Plugin is
// created once per registered module and lives for the rest of the process,
// so the host may keep the pointer it was given.
type Plugin struct {
	PluginAPI          string
	APIVersion         APIVersion
	Identifier         string
	PluginVersionMajor uint32
	PluginVersionMinor uint32
	SetHost            SetHostFunc
	MainEntry          MainEntryFunc
}

// Version returns the plugin version carried by the record.
func (p *Plugin) Version() PluginVersion {
	return PluginVersion{Major: p.PluginVersionMajor, Minor: p.PluginVersionMinor}
}
