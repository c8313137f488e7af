// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bundle

import (
	"sync/atomic"

	"github.com/holomush/ofxbundle/pkg/ofx"
)

// process is the facade behind the ABI entry points of this compiled module.
var process atomic.Pointer[Facade]

// Install sets the build function for the process-wide facade. It only records
// build; the registry is still built lazily by the first entry point call.
// A module has one plugin list, so a second Install panics.
//
// Install is meant to be called from the init function of the package that
// exports the ABI:
//
//	func init() {
//		bundle.Install(bundle.Modules(blur.Definition(), sharpen.Definition()))
//	}
func Install(build BuildFunc, opts ...FacadeOption) *Facade {
	f := NewFacade(build, opts...)
	f.shared = true
	if !process.CompareAndSwap(nil, f) {
		panic("bundle.Install: plugin list already installed")
	}
	return f
}

// Default returns the process-wide facade. Calling it before Install is a
// programming error and panics with a NOT_INITIALIZED error.
func Default() *Facade {
	f := process.Load()
	if f == nil {
		panic(ofx.ErrNotInitialized())
	}
	return f
}

// GetNumberOfPlugins is the plugin-count entry point.
func GetNumberOfPlugins() int {
	return Default().Count()
}

// GetPlugin is the get-plugin entry point. It returns nil for an index outside
// [0, GetNumberOfPlugins()).
func GetPlugin(index int) *ofx.Plugin {
	return Default().Plugin(index)
}

// SetHostForPlugin is the set-host entry point shared by every module's shim.
func SetHostForPlugin(module string, host *ofx.Host) {
	Default().SetHost(module, host)
}

// MainEntryForPlugin is the main entry point shared by every module's shim.
func MainEntryForPlugin(module, action string, handle ofx.Handle, inArgs, outArgs ofx.PropertySetHandle) ofx.Status {
	return Default().MainEntry(module, action, handle, inArgs, outArgs)
}

// DescribePlugins lists every plugin of the process-wide facade.
func DescribePlugins() []string {
	return Default().Describe()
}
