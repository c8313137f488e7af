// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ofx

// RawMessage is a host call exactly as the ABI shim received it. The set is
// closed: SetHost and MainEntry are the only implementations.
type RawMessage interface {
	rawMessage()
}

// Message is what a Capability receives after the raw call has been decoded.
// The set is closed: SetHost and Call are the only implementations.
type Message interface {
	message()
}

// SetHost installs the host services table. It is both a raw and a decoded
// message since it carries nothing that needs decoding.
type SetHost struct {
	Host *Host
}

// MainEntry is an undecoded action request. The handles are borrowed for the
// duration of the call that delivered them and must not be retained.
type MainEntry struct {
	Action  string
	Handle  Handle
	InArgs  PropertySetHandle
	OutArgs PropertySetHandle
}

// Call is a MainEntry whose action name has been resolved by the catalog.
// The handles follow the same lifetime rule as in MainEntry.
type Call struct {
	Action  Action
	Handle  Handle
	InArgs  PropertySetHandle
	OutArgs PropertySetHandle
}

func (SetHost) rawMessage()   {}
func (MainEntry) rawMessage() {}

func (SetHost) message() {}
func (Call) message()    {}

// UnknownAction labels a main entry whose action is not in the catalog.
const UnknownAction = "unknown"

// Kind returns a label for a raw message drawn from a fixed set: "set_host",
// a catalog action name, or UnknownAction. It is safe to use as a metric label.
func Kind(msg RawMessage) string {
	switch m := msg.(type) {
	case SetHost:
		return "set_host"
	case MainEntry:
		if action, ok := DecodeAction(m.Action); ok {
			return action.String()
		}
		return UnknownAction
	default:
		return UnknownAction
	}
}

// RawAction returns the action name exactly as the host sent it, for logs.
func RawAction(msg RawMessage) string {
	if m, ok := msg.(MainEntry); ok {
		return m.Action
	}
	return Kind(msg)
}
