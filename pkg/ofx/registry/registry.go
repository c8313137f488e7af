// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package registry holds the process-wide table of plugins: their identities,
// their Executables, and the routing from module name to plugin.
package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/holomush/ofxbundle/pkg/ofx"
)

// Registration describes one plugin to add to a Registry.
type Registration struct {
	ModuleName    string
	DisplayName   string
	APIVersion    ofx.APIVersion
	PluginVersion ofx.PluginVersion
	Capability    ofx.Executable
	SetHost       ofx.SetHostFunc
	MainEntry     ofx.MainEntryFunc
}

// Registry maps module names to plugin entries. Entries are kept in
// registration order, which is the order the host enumerates them in.
//
// Registration is a closed phase: once Seal is called, Register fails and the
// table is read without locking. Before Seal, all methods are safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sealed  atomic.Bool
	entries []*Entry
	modules map[string]int
	bind    Binder
}

// Binder supplies the entry points written into a module's plugin record,
// replacing the ones given in its Registration.
type Binder func(module string) (ofx.SetHostFunc, ofx.MainEntryFunc)

// Option configures a Registry.
type Option func(*Registry)

// WithBinder makes every registered record use the entry points bind returns.
func WithBinder(bind Binder) Option {
	return func(r *Registry) {
		r.bind = bind
	}
}

// New creates an empty, unsealed registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		modules: make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a plugin and returns its index. A module name may be
// registered only once; indices are never reused.
func (r *Registry) Register(reg Registration) (int, error) {
	if reg.ModuleName == "" {
		return -1, ofx.ErrInvalidRegistration(reg.ModuleName, "module name is empty")
	}
	if reg.Capability == nil {
		return -1, ofx.ErrInvalidRegistration(reg.ModuleName, "capability is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return -1, ofx.ErrRegistrySealed(reg.ModuleName)
	}
	if existing, ok := r.modules[reg.ModuleName]; ok {
		return -1, ofx.ErrDuplicateModule(reg.ModuleName, existing)
	}

	index := len(r.entries)
	d := Descriptor{
		Index:         index,
		ModuleName:    reg.ModuleName,
		DisplayName:   reg.DisplayName,
		APIVersion:    reg.APIVersion,
		PluginVersion: reg.PluginVersion,
	}
	setHost, mainEntry := reg.SetHost, reg.MainEntry
	if r.bind != nil {
		setHost, mainEntry = r.bind(reg.ModuleName)
	}
	r.entries = append(r.entries, newEntry(d, reg.Capability, setHost, mainEntry))
	r.modules[reg.ModuleName] = index
	return index, nil
}

// Seal ends the registration phase. It is idempotent.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// rlock takes the read lock only while registration is still open.
func (r *Registry) rlock() func() {
	if r.sealed.Load() {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	defer r.rlock()()
	return len(r.entries)
}

// Entry returns the entry at index.
func (r *Registry) Entry(index int) (*Entry, error) {
	defer r.rlock()()
	if index < 0 || index >= len(r.entries) {
		return nil, ofx.ErrBadIndex(index, len(r.entries))
	}
	return r.entries[index], nil
}

// Descriptor returns the identity of the plugin at index.
func (r *Registry) Descriptor(index int) (Descriptor, error) {
	e, err := r.Entry(index)
	if err != nil {
		return Descriptor{}, err
	}
	return e.Descriptor(), nil
}

// Plugin returns the host-visible record of the plugin at index.
func (r *Registry) Plugin(index int) (*ofx.Plugin, error) {
	e, err := r.Entry(index)
	if err != nil {
		return nil, err
	}
	return e.Plugin(), nil
}

// Lookup resolves a module name to its index.
func (r *Registry) Lookup(module string) (int, bool) {
	defer r.rlock()()
	index, ok := r.modules[module]
	return index, ok
}

// Entries returns the entries in index order. The slice is a copy.
func (r *Registry) Entries() []*Entry {
	defer r.rlock()()
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Descriptors returns every descriptor in index order.
func (r *Registry) Descriptors() []Descriptor {
	entries := r.Entries()
	out := make([]Descriptor, len(entries))
	for i, e := range entries {
		out[i] = e.Descriptor()
	}
	return out
}

// Dispatch routes msg to the plugin registered under module.
func (r *Registry) Dispatch(ctx context.Context, module string, msg ofx.RawMessage) (ofx.Status, error) {
	index, ok := r.Lookup(module)
	if !ok {
		return ofx.StatusUnresolved, ofx.ErrPluginNotFound(module)
	}
	e, err := r.Entry(index)
	if err != nil {
		return ofx.StatErrFatal, err
	}
	return e.Dispatch(ctx, msg)
}
