// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ofx

import "strconv"

// Status is the integer result code returned across the plugin ABI.
type Status int32

// OFX status codes, numbered as the host expects them.
const (
	StatOK                    Status = 0
	StatFailed                Status = 1
	StatErrFatal              Status = 2
	StatErrUnknown            Status = 3
	StatErrMissingHostFeature Status = 4
	StatErrUnsupported        Status = 5
	StatErrExists             Status = 6
	StatErrFormat             Status = 7
	StatErrMemory             Status = 8
	StatErrBadHandle          Status = 9
	StatErrBadIndex           Status = 10
	StatErrValue              Status = 11
	StatReplyYes              Status = 12
	StatReplyNo               Status = 13
	StatReplyDefault          Status = 14
)

// StatusUnresolved is returned by a main entry call that could not be routed
// to any plugin.
const StatusUnresolved Status = -1

var statusNames = map[Status]string{
	StatOK:                    "kOfxStatOK",
	StatFailed:                "kOfxStatFailed",
	StatErrFatal:              "kOfxStatErrFatal",
	StatErrUnknown:            "kOfxStatErrUnknown",
	StatErrMissingHostFeature: "kOfxStatErrMissingHostFeature",
	StatErrUnsupported:        "kOfxStatErrUnsupported",
	StatErrExists:             "kOfxStatErrExists",
	StatErrFormat:             "kOfxStatErrFormat",
	StatErrMemory:             "kOfxStatErrMemory",
	StatErrBadHandle:          "kOfxStatErrBadHandle",
	StatErrBadIndex:           "kOfxStatErrBadIndex",
	StatErrValue:              "kOfxStatErrValue",
	StatReplyYes:              "kOfxStatReplyYes",
	StatReplyNo:               "kOfxStatReplyNo",
	StatReplyDefault:          "kOfxStatReplyDefault",
	StatusUnresolved:          "unresolved",
}

// String returns the OFX constant name for s.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the OFX status codes a plugin may return.
func (s Status) Valid() bool {
	return s >= StatOK && s <= StatReplyDefault
}

// Failed reports whether s signals that the call did not succeed. The reply
// statuses and ReplyDefault ("not handled") are not failures.
func (s Status) Failed() bool {
	switch s {
	case StatOK, StatReplyYes, StatReplyNo, StatReplyDefault:
		return false
	default:
		return true
	}
}
