// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bundle

// ResetProcessForTest clears the process-wide facade so tests can Install again.
func ResetProcessForTest() {
	process.Store(nil)
}
