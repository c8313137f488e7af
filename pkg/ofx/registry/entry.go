// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/ofxbundle/pkg/ofx"
)

// Descriptor is the immutable identity of a registered plugin.
type Descriptor struct {
	Index         int
	ModuleName    string
	DisplayName   string
	APIVersion    ofx.APIVersion
	PluginVersion ofx.PluginVersion
}

// String renders the descriptor the way plugin listings show it.
func (d Descriptor) String() string {
	return fmt.Sprintf("%d:%s %q api=%d v=%s",
		d.Index, d.ModuleName, d.DisplayName, d.APIVersion, d.PluginVersion)
}

// Entry owns one plugin: its descriptor, its Executable, and the record the
// host reads. Dispatch into a single Entry is serialized; different entries
// dispatch independently.
type Entry struct {
	descriptor Descriptor
	plugin     *ofx.Plugin

	mu         sync.Mutex
	capability ofx.Executable
}

func newEntry(d Descriptor, capability ofx.Executable, setHost ofx.SetHostFunc, mainEntry ofx.MainEntryFunc) *Entry {
	return &Entry{
		descriptor: d,
		capability: capability,
		plugin: &ofx.Plugin{
			PluginAPI:          ofx.ImageEffectPluginAPI,
			APIVersion:         d.APIVersion,
			Identifier:         d.DisplayName,
			PluginVersionMajor: d.PluginVersion.Major,
			PluginVersionMinor: d.PluginVersion.Minor,
			SetHost:            setHost,
			MainEntry:          mainEntry,
		},
	}
}

// Descriptor returns the plugin's identity.
func (e *Entry) Descriptor() Descriptor {
	return e.descriptor
}

// Plugin returns the host-visible record. The same pointer is returned on every
// call for the lifetime of the entry.
func (e *Entry) Plugin() *ofx.Plugin {
	return e.plugin
}

// String implements fmt.Stringer.
func (e *Entry) String() string {
	return e.descriptor.String()
}

// Dispatch decodes msg and forwards it to the plugin's Executable.
//
// A main entry whose action name is not in the catalog is answered with
// StatReplyDefault and an UNSUPPORTED_ACTION error without reaching the
// Executable. A panic inside the Executable is recovered and reported as
// StatErrFatal.
func (e *Entry) Dispatch(ctx context.Context, raw ofx.RawMessage) (ofx.Status, error) {
	var msg ofx.Message
	switch m := raw.(type) {
	case ofx.SetHost:
		if m.Host == nil {
			return ofx.StatErrBadHandle, ofx.ErrInvalidHost()
		}
		msg = m
	case ofx.MainEntry:
		action, ok := ofx.DecodeAction(m.Action)
		if !ok {
			return ofx.StatReplyDefault, ofx.ErrUnsupportedAction(m.Action)
		}
		msg = ofx.Call{
			Action:  action,
			Handle:  m.Handle,
			InArgs:  m.InArgs,
			OutArgs: m.OutArgs,
		}
	default:
		return ofx.StatErrUnknown, oops.Code(ofx.CodeUnsupportedAction).
			With("module", e.descriptor.ModuleName).
			Errorf("unknown message type %T", raw)
	}

	return e.handle(ctx, msg)
}

func (e *Entry) handle(ctx context.Context, msg ofx.Message) (status ofx.Status, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "plugin panicked during dispatch",
				"module", e.descriptor.ModuleName,
				"panic", r)
			status = ofx.StatErrFatal
			err = oops.Code(ofx.CodeActionFailed).
				With("module", e.descriptor.ModuleName).
				With("panic", fmt.Sprint(r)).
				Errorf("plugin %s panicked", e.descriptor.ModuleName)
		}
	}()

	status, err = e.capability.Handle(ctx, msg)
	if err != nil {
		return ofx.ResolveStatus(status, err), oops.With("module", e.descriptor.ModuleName).Wrap(err)
	}
	return status, nil
}
