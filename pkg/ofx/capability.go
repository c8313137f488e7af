// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ofx

import (
	"context"
	"sync"
)

// Executable is the behavior of one plugin. Handle consumes a decoded message
// and returns the status for the host, or an error that the dispatch core
// translates with StatusFor.
//
// Implementations own whatever state they need. The dispatch core never calls
// Handle on the same Executable from two goroutines at once.
type Executable interface {
	Handle(ctx context.Context, msg Message) (Status, error)
}

// ExecutableFunc adapts a function to Executable.
type ExecutableFunc func(ctx context.Context, msg Message) (Status, error)

// Handle calls f.
func (f ExecutableFunc) Handle(ctx context.Context, msg Message) (Status, error) {
	return f(ctx, msg)
}

// Factory creates a fresh Executable for a plugin at registration time.
type Factory func() Executable

// ActionHandler handles one action for a Router. host is the host installed by
// the last SetHost and is never nil.
type ActionHandler func(ctx context.Context, host *Host, call Call) (Status, error)

// Router is an Executable that keeps the host from SetHost and routes calls to
// per-action handlers. Actions with no handler are answered as unsupported.
// Calls that arrive before SetHost fail with HOST_NOT_SET, except Load and
// Unload which some hosts send first and which a Router accepts silently.
type Router struct {
	mu       sync.RWMutex
	host     *Host
	handlers map[Action]ActionHandler
}

// Compile-time interface check.
var _ Executable = (*Router)(nil)

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[Action]ActionHandler)}
}

// On registers the handler for action, replacing any previous one. It returns
// the router so registrations can be chained.
func (r *Router) On(action Action, h ActionHandler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = h
	return r
}

// Host returns the installed host, or nil before SetHost.
func (r *Router) Host() *Host {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.host
}

// Handle implements Executable.
func (r *Router) Handle(ctx context.Context, msg Message) (Status, error) {
	switch m := msg.(type) {
	case SetHost:
		if m.Host == nil {
			return StatErrBadHandle, ErrInvalidHost()
		}
		r.mu.Lock()
		r.host = m.Host
		r.mu.Unlock()
		return StatOK, nil
	case Call:
		r.mu.RLock()
		host := r.host
		h, ok := r.handlers[m.Action]
		r.mu.RUnlock()

		if host == nil {
			if m.Action == ActionLoad || m.Action == ActionUnload {
				return StatOK, nil
			}
			return StatFailed, ErrHostNotSet(m.Action)
		}
		if !ok {
			return StatReplyDefault, ErrUnsupportedAction(m.Action.String())
		}
		return h(ctx, host, m)
	default:
		return StatErrUnknown, ErrUnsupportedAction("unknown message")
	}
}
