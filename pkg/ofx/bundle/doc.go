// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package bundle is the dispatch facade behind a compiled plugin module.
//
// The host drives a module through four entry points and never passes any
// context: a plugin count, an indexed plugin record, and a set-host /
// main-entry pair per module. This package turns those calls into
// registry lookups:
//
//   - Define declares a module and gives it a Shim whose methods are the
//     module's set-host and main-entry functions.
//   - Modules turns a fixed list of modules into a BuildFunc.
//   - Install records the BuildFunc for the process. The registry itself is
//     built on the first entry point call, whichever it is, exactly once.
//
// Plugin failures are reported to the host as status codes and never as
// panics. Broken invariants of the dispatch core itself (a build error, use
// before Install) panic.
package bundle
