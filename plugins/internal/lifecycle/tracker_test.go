// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lifecycle

import (
	"context"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ofxbundle/pkg/errutil"
	"github.com/holomush/ofxbundle/pkg/ofx"
)

func newHandle() ofx.Handle {
	return ofx.Handle(unsafe.Pointer(new(int)))
}

func call(t *testing.T, r *ofx.Router, action ofx.Action, h ofx.Handle) (ofx.Status, error) {
	t.Helper()
	return r.Handle(context.Background(), ofx.Call{Action: action, Handle: h})
}

func setup(t *testing.T, actions ...ofx.Action) (*Tracker, *ofx.Router) {
	t.Helper()
	tr := NewTracker()
	r := tr.Install(ofx.NewRouter(), actions...)
	status, err := r.Handle(context.Background(), ofx.SetHost{Host: &ofx.Host{}})
	require.NoError(t, err)
	require.Equal(t, ofx.StatOK, status)
	return tr, r
}

var all = []ofx.Action{
	ofx.ActionLoad, ofx.ActionUnload, ofx.ActionDescribe, ofx.ActionCreateInstance,
	ofx.ActionDestroyInstance, ofx.ActionRender, ofx.ActionBeginSequenceRender, ofx.ActionEndSequenceRender,
}

func TestTracker_FullLifecycle(t *testing.T) {
	tr, r := setup(t, all...)
	h := newHandle()

	for _, step := range []ofx.Action{ofx.ActionLoad, ofx.ActionDescribe, ofx.ActionCreateInstance,
		ofx.ActionBeginSequenceRender, ofx.ActionRender, ofx.ActionRender, ofx.ActionEndSequenceRender} {
		status, err := call(t, r, step, h)
		require.NoError(t, err, step.String())
		assert.Equal(t, ofx.StatOK, status, step.String())
	}

	assert.Equal(t, 2, tr.Renders(h))
	assert.Equal(t, Stats{Loaded: true, Loads: 1, Instances: 1, Renders: 2, Sequences: 1}, tr.Stats())

	status, err := call(t, r, ofx.ActionDestroyInstance, h)
	require.NoError(t, err)
	assert.Equal(t, ofx.StatOK, status)
	assert.Equal(t, -1, tr.Renders(h))

	_, err = call(t, r, ofx.ActionUnload, nil)
	require.NoError(t, err)
	assert.False(t, tr.Stats().Loaded)
}

func TestTracker_CreateBeforeLoadFails(t *testing.T) {
	_, r := setup(t, all...)

	status, err := call(t, r, ofx.ActionCreateInstance, newHandle())
	assert.Equal(t, ofx.StatFailed, status)
	errutil.AssertErrorCode(t, err, ofx.CodeActionFailed)
}

func TestTracker_InstanceErrors(t *testing.T) {
	_, r := setup(t, all...)
	_, err := call(t, r, ofx.ActionLoad, nil)
	require.NoError(t, err)

	status, err := call(t, r, ofx.ActionCreateInstance, nil)
	assert.Equal(t, ofx.StatErrBadHandle, status)
	assert.Error(t, err)

	h := newHandle()
	_, err = call(t, r, ofx.ActionCreateInstance, h)
	require.NoError(t, err)
	status, err = call(t, r, ofx.ActionCreateInstance, h)
	assert.Equal(t, ofx.StatErrExists, status)
	assert.Error(t, err)

	stranger := newHandle()
	for _, a := range []ofx.Action{ofx.ActionRender, ofx.ActionBeginSequenceRender, ofx.ActionDestroyInstance} {
		status, err = call(t, r, a, stranger)
		assert.Equal(t, ofx.StatErrBadHandle, status, a.String())
		errutil.AssertErrorCode(t, err, ofx.CodeActionFailed)
	}
}

func TestTracker_InstallSkipsUnknownActions(t *testing.T) {
	_, r := setup(t, ofx.ActionLoad, ofx.ActionGetRegionOfDefinition)

	status, err := call(t, r, ofx.ActionGetRegionOfDefinition, nil)
	assert.Equal(t, ofx.StatReplyDefault, status)
	assert.True(t, ofx.IsUnsupported(err))
}
