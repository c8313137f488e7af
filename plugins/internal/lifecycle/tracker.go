// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package lifecycle tracks the load and instance lifecycle shared by the
// example effects. It performs no image work.
package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/holomush/ofxbundle/pkg/ofx"
)

var (
	errNotLoaded       = errors.New("plugin not loaded")
	errNilHandle       = errors.New("instance handle is nil")
	errUnknownInstance = errors.New("unknown instance")
	errInstanceExists  = errors.New("instance already exists")
)

// Stats is a snapshot of a Tracker.
type Stats struct {
	Loaded    bool
	Loads     int
	Instances int
	Renders   int
	Sequences int
}

// Tracker records plugin load state, live instances and renders.
type Tracker struct {
	mu        sync.Mutex
	loaded    bool
	loads     int
	instances map[ofx.Handle]int
	renders   int
	sequences int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{instances: make(map[ofx.Handle]int)}
}

// Stats returns a snapshot.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Loaded:    t.loaded,
		Loads:     t.loads,
		Instances: len(t.instances),
		Renders:   t.renders,
		Sequences: t.sequences,
	}
}

// Renders returns how many renders instance h has done, or -1 if h is not live.
func (t *Tracker) Renders(h ofx.Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.instances[h]
	if !ok {
		return -1
	}
	return n
}

// Install registers lifecycle handlers on r for each of actions. Actions the
// tracker has no handler for are ignored, leaving them unsupported.
func (t *Tracker) Install(r *ofx.Router, actions ...ofx.Action) *ofx.Router {
	for _, a := range actions {
		if h := t.handler(a); h != nil {
			r.On(a, h)
		}
	}
	return r
}

func (t *Tracker) handler(a ofx.Action) ofx.ActionHandler {
	switch a {
	case ofx.ActionLoad:
		return t.load
	case ofx.ActionUnload:
		return t.unload
	case ofx.ActionDescribe, ofx.ActionDescribeInContext, ofx.ActionPurgeCaches, ofx.ActionSyncPrivateData:
		return accept
	case ofx.ActionCreateInstance:
		return t.createInstance
	case ofx.ActionDestroyInstance:
		return t.destroyInstance
	case ofx.ActionRender:
		return t.render
	case ofx.ActionBeginSequenceRender, ofx.ActionEndSequenceRender:
		return t.sequence
	default:
		return nil
	}
}

func accept(context.Context, *ofx.Host, ofx.Call) (ofx.Status, error) {
	return ofx.StatOK, nil
}

func (t *Tracker) load(context.Context, *ofx.Host, ofx.Call) (ofx.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = true
	t.loads++
	return ofx.StatOK, nil
}

func (t *Tracker) unload(context.Context, *ofx.Host, ofx.Call) (ofx.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = false
	return ofx.StatOK, nil
}

func (t *Tracker) createInstance(_ context.Context, _ *ofx.Host, call ofx.Call) (ofx.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case !t.loaded:
		return ofx.StatFailed, ofx.ErrActionFailed(call.Action, errNotLoaded)
	case call.Handle == nil:
		return ofx.StatErrBadHandle, ofx.ErrActionFailed(call.Action, errNilHandle)
	}
	if _, exists := t.instances[call.Handle]; exists {
		return ofx.StatErrExists, ofx.ErrActionFailed(call.Action, errInstanceExists)
	}
	t.instances[call.Handle] = 0
	return ofx.StatOK, nil
}

func (t *Tracker) destroyInstance(_ context.Context, _ *ofx.Host, call ofx.Call) (ofx.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.instances[call.Handle]; !exists {
		return ofx.StatErrBadHandle, ofx.ErrActionFailed(call.Action, errUnknownInstance)
	}
	delete(t.instances, call.Handle)
	return ofx.StatOK, nil
}

func (t *Tracker) render(_ context.Context, _ *ofx.Host, call ofx.Call) (ofx.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, exists := t.instances[call.Handle]
	if !exists {
		return ofx.StatErrBadHandle, ofx.ErrActionFailed(call.Action, errUnknownInstance)
	}
	t.instances[call.Handle] = n + 1
	t.renders++
	return ofx.StatOK, nil
}

func (t *Tracker) sequence(_ context.Context, _ *ofx.Host, call ofx.Call) (ofx.Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.instances[call.Handle]; !exists {
		return ofx.StatErrBadHandle, ofx.ErrActionFailed(call.Action, errUnknownInstance)
	}
	if call.Action == ofx.ActionBeginSequenceRender {
		t.sequences++
	}
	return ofx.StatOK, nil
}
