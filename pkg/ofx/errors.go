// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ofx

import (
	"github.com/samber/oops"
)

// Error codes for dispatch failures.
const (
	CodePluginNotFound      = "PLUGIN_NOT_FOUND"
	CodeNotInitialized      = "NOT_INITIALIZED"
	CodeUnsupportedAction   = "UNSUPPORTED_ACTION"
	CodeActionFailed        = "ACTION_FAILED"
	CodeHostNotSet          = "HOST_NOT_SET"
	CodeInvalidHost         = "INVALID_HOST"
	CodeDuplicateModule     = "DUPLICATE_MODULE"
	CodeInvalidRegistration = "INVALID_REGISTRATION"
	CodeRegistrySealed      = "REGISTRY_SEALED"
	CodeBadIndex            = "BAD_INDEX"
)

// statusKey is the oops context key holding an explicit Status for an error.
const statusKey = "ofx_status"

// ErrPluginNotFound creates an error for a dispatch to an unregistered module.
func ErrPluginNotFound(module string) error {
	return oops.Code(CodePluginNotFound).
		With("module", module).
		Errorf("plugin not found: %s", module)
}

// ErrNotInitialized creates an error for access to dispatch state before the
// registry was built. Callers treat it as fatal.
func ErrNotInitialized() error {
	return oops.Code(CodeNotInitialized).
		Errorf("plugin registry accessed before initialization")
}

// ErrUnsupportedAction creates an error for an action the plugin does not
// handle, either because the catalog does not know it or the plugin ignores it.
func ErrUnsupportedAction(action string) error {
	return oops.Code(CodeUnsupportedAction).
		With("action", action).
		Errorf("unsupported action: %s", action)
}

// ErrActionFailed wraps a failure from the plugin's own logic.
func ErrActionFailed(action Action, cause error) error {
	builder := oops.Code(CodeActionFailed).With("action", action.String())
	if cause != nil {
		return builder.Wrap(cause)
	}
	return builder.Errorf("action %s failed", action)
}

// ErrHostNotSet creates an error for an action received before SetHost.
func ErrHostNotSet(action Action) error {
	return oops.Code(CodeHostNotSet).
		With("action", action.String()).
		Errorf("host not set before %s", action)
}

// ErrInvalidHost creates an error for a SetHost call carrying no host.
func ErrInvalidHost() error {
	return oops.Code(CodeInvalidHost).Errorf("set host called with a nil host")
}

// ErrDuplicateModule creates an error for a second registration of a module.
func ErrDuplicateModule(module string, existing int) error {
	return oops.Code(CodeDuplicateModule).
		With("module", module).
		With("existing_index", existing).
		Errorf("module %s already registered at index %d", module, existing)
}

// ErrInvalidRegistration creates an error for a registration missing a
// required field.
func ErrInvalidRegistration(module, reason string) error {
	return oops.Code(CodeInvalidRegistration).
		With("module", module).
		Errorf("invalid registration for %q: %s", module, reason)
}

// ErrRegistrySealed creates an error for a registration after startup.
func ErrRegistrySealed(module string) error {
	return oops.Code(CodeRegistrySealed).
		With("module", module).
		Errorf("registry is sealed, cannot register %s", module)
}

// ErrBadIndex creates an error for a plugin index outside [0, count).
func ErrBadIndex(index, count int) error {
	return oops.Code(CodeBadIndex).
		With("index", index).
		With("count", count).
		Errorf("plugin index %d out of range [0, %d)", index, count)
}

// WithStatus attaches an explicit ABI status to err. StatusFor returns it in
// preference to the status derived from the error code.
func WithStatus(err error, status Status) error {
	if err == nil {
		return nil
	}
	return oops.With(statusKey, status).Wrap(err)
}

// HasCode reports whether err is an oops error carrying code.
func HasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == code
}

// StatusFor translates an error into the ABI status reported to the host.
// A nil error maps to StatOK.
func StatusFor(err error) Status {
	if err == nil {
		return StatOK
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return StatFailed
	}
	if s, ok := oopsErr.Context()[statusKey].(Status); ok {
		return s
	}

	switch oopsErr.Code() {
	case CodePluginNotFound:
		return StatusUnresolved
	case CodeUnsupportedAction:
		return StatReplyDefault
	case CodeInvalidHost:
		return StatErrBadHandle
	case CodeBadIndex:
		return StatErrBadIndex
	case CodeNotInitialized:
		return StatErrFatal
	default:
		return StatFailed
	}
}

// IsUnsupported reports whether err means "not handled" rather than failure.
func IsUnsupported(err error) bool {
	return HasCode(err, CodeUnsupportedAction)
}

// ResolveStatus picks the status reported for an Executable result. With no
// error the returned status stands. With an error, a status attached through
// WithStatus wins, then a non-OK status returned alongside the error, and
// finally the status derived from the error code.
func ResolveStatus(status Status, err error) Status {
	if err == nil {
		return status
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if s, ok := oopsErr.Context()[statusKey].(Status); ok {
			return s
		}
	}
	if status != StatOK {
		return status
	}
	return StatusFor(err)
}
