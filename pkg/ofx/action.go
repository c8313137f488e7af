// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package ofx

// Action identifies a request the host sends through the main entry point.
type Action int

// Actions known to the catalog. ActionUnknown is never produced by
// DecodeAction; it is the zero value.
const (
	ActionUnknown Action = iota

	ActionLoad
	ActionUnload
	ActionDescribe
	ActionCreateInstance
	ActionDestroyInstance
	ActionPurgeCaches
	ActionSyncPrivateData
	ActionBeginInstanceChanged
	ActionInstanceChanged
	ActionEndInstanceChanged
	ActionBeginInstanceEdit
	ActionEndInstanceEdit

	ActionDescribeInContext
	ActionGetRegionOfDefinition
	ActionGetRegionsOfInterest
	ActionGetTimeDomain
	ActionGetFramesNeeded
	ActionGetClipPreferences
	ActionIsIdentity
	ActionRender
	ActionBeginSequenceRender
	ActionEndSequenceRender
)

var actionNames = [...]string{
	ActionUnknown: "",

	ActionLoad:                 "OfxActionLoad",
	ActionUnload:               "OfxActionUnload",
	ActionDescribe:             "OfxActionDescribe",
	ActionCreateInstance:       "OfxActionCreateInstance",
	ActionDestroyInstance:      "OfxActionDestroyInstance",
	ActionPurgeCaches:          "OfxActionPurgeCaches",
	ActionSyncPrivateData:      "OfxActionSyncPrivateData",
	ActionBeginInstanceChanged: "OfxActionBeginInstanceChanged",
	ActionInstanceChanged:      "OfxActionInstanceChanged",
	ActionEndInstanceChanged:   "OfxActionEndInstanceChanged",
	ActionBeginInstanceEdit:    "OfxActionBeginInstanceEdit",
	ActionEndInstanceEdit:      "OfxActionEndInstanceEdit",

	ActionDescribeInContext:     "OfxImageEffectActionDescribeInContext",
	ActionGetRegionOfDefinition: "OfxImageEffectActionGetRegionOfDefinition",
	ActionGetRegionsOfInterest:  "OfxImageEffectActionGetRegionsOfInterest",
	ActionGetTimeDomain:         "OfxImageEffectActionGetTimeDomain",
	ActionGetFramesNeeded:       "OfxImageEffectActionGetFramesNeeded",
	ActionGetClipPreferences:    "OfxImageEffectActionGetClipPreferences",
	ActionIsIdentity:            "OfxImageEffectActionIsIdentity",
	ActionRender:                "OfxImageEffectActionRender",
	ActionBeginSequenceRender:   "OfxImageEffectActionBeginSequenceRender",
	ActionEndSequenceRender:     "OfxImageEffectActionEndSequenceRender",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, name := range actionNames {
		if name != "" {
			m[name] = Action(a)
		}
	}
	return m
}()

// DecodeAction resolves a raw action name. The second result is false for
// names outside the catalog; hosts probe for optional actions, so this is not
// an error by itself.
func DecodeAction(name string) (Action, bool) {
	a, ok := actionsByName[name]
	return a, ok
}

// Actions returns every action in the catalog in declaration order.
func Actions() []Action {
	out := make([]Action, 0, len(actionNames)-1)
	for a := ActionLoad; int(a) < len(actionNames); a++ {
		out = append(out, a)
	}
	return out
}

// String returns the raw action name the host uses.
func (a Action) String() string {
	if a <= ActionUnknown || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}
