// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bundle

import (
	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/registry"
)

// ModuleName names the entry-point pair of one plugin module. Implementations
// are empty types whose method returns a constant:
//
//	type blurModule struct{}
//
//	func (blurModule) ModuleName() string { return "blur" }
type ModuleName interface {
	ModuleName() string
}

// Shim is the set-host / main-entry pair for module M. Its methods carry no
// state: the only thing that distinguishes one module's shim from another's is
// the name returned by M, so a shim method value can stand in for a bare
// function pointer.
type Shim[M ModuleName] struct{}

// Name returns the module name the shim routes to.
func (Shim[M]) Name() string {
	var m M
	return m.ModuleName()
}

// SetHost delivers host to module M through the process-wide facade.
func (s Shim[M]) SetHost(host *ofx.Host) {
	SetHostForPlugin(s.Name(), host)
}

// MainEntry delivers an action to module M through the process-wide facade.
func (s Shim[M]) MainEntry(action string, handle ofx.Handle, inArgs, outArgs ofx.PropertySetHandle) ofx.Status {
	return MainEntryForPlugin(s.Name(), action, handle, inArgs, outArgs)
}

// Module is the static declaration of one plugin module.
type Module struct {
	Name          string
	DisplayName   string
	APIVersion    ofx.APIVersion
	PluginVersion ofx.PluginVersion
	Factory       ofx.Factory
	SetHost       ofx.SetHostFunc
	MainEntry     ofx.MainEntryFunc
}

// Define declares module M. The returned Module's entry points are M's shim.
func Define[M ModuleName](displayName string, api ofx.APIVersion, version ofx.PluginVersion, factory ofx.Factory) Module {
	var shim Shim[M]
	return Module{
		Name:          shim.Name(),
		DisplayName:   displayName,
		APIVersion:    api,
		PluginVersion: version,
		Factory:       factory,
		SetHost:       shim.SetHost,
		MainEntry:     shim.MainEntry,
	}
}

// Register adds m to r, creating a fresh Executable from m.Factory.
func Register(r *registry.Registry, m Module) (int, error) {
	if m.Factory == nil {
		return -1, ofx.ErrInvalidRegistration(m.Name, "factory is nil")
	}
	return r.Register(registry.Registration{
		ModuleName:    m.Name,
		DisplayName:   m.DisplayName,
		APIVersion:    m.APIVersion,
		PluginVersion: m.PluginVersion,
		Capability:    m.Factory(),
		SetHost:       m.SetHost,
		MainEntry:     m.MainEntry,
	})
}

// BuildFunc populates a registry during one-time initialization.
type BuildFunc func(r *registry.Registry) error

// Modules returns a BuildFunc registering the given modules in order.
func Modules(modules ...Module) BuildFunc {
	return func(r *registry.Registry) error {
		for _, m := range modules {
			if _, err := Register(r, m); err != nil {
				return err
			}
		}
		return nil
	}
}
