// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package luafx_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ofxbundle/internal/script"
	"github.com/holomush/ofxbundle/pkg/errutil"
	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/plugins/luafx"
)

var propertySuite int

func fullHost() *ofx.Host {
	return &ofx.Host{FetchSuite: func(name string, _ int) unsafe.Pointer {
		if name == ofx.PropertySuite {
			return unsafe.Pointer(&propertySuite)
		}
		return nil
	}}
}

func newEffect(t *testing.T, source string, opts ...luafx.Option) *luafx.Effect {
	t.Helper()
	var chunk *script.Chunk
	var err error
	if source == "" {
		chunk, err = luafx.DefaultChunk()
	} else {
		chunk, err = script.Compile("test.lua", source)
	}
	require.NoError(t, err)
	e := luafx.New(chunk, opts...)
	t.Cleanup(e.Close)
	return e
}

func handle(t *testing.T, e *luafx.Effect, msg ofx.Message) (ofx.Status, error) {
	t.Helper()
	return e.Handle(context.Background(), msg)
}

func TestDefaultScript_Lifecycle(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newEffect(t, "", luafx.WithLogger(logger))
	h := ofx.Handle(unsafe.Pointer(new(int)))

	status, err := handle(t, e, ofx.SetHost{Host: fullHost()})
	require.NoError(t, err)
	require.Equal(t, ofx.StatOK, status)

	steps := []struct {
		action ofx.Action
		want   ofx.Status
	}{
		{ofx.ActionLoad, ofx.StatOK},
		{ofx.ActionDescribe, ofx.StatOK},
		{ofx.ActionDescribeInContext, ofx.StatOK},
		{ofx.ActionCreateInstance, ofx.StatOK},
		{ofx.ActionIsIdentity, ofx.StatReplyYes},
		{ofx.ActionRender, ofx.StatOK},
		{ofx.ActionRender, ofx.StatOK},
		{ofx.ActionGetRegionOfDefinition, ofx.StatReplyDefault},
		{ofx.ActionDestroyInstance, ofx.StatOK},
		{ofx.ActionRender, ofx.StatErrBadHandle},
		{ofx.ActionUnload, ofx.StatOK},
	}
	for i, s := range steps {
		status, _ := handle(t, e, ofx.Call{Action: s.action, Handle: h})
		assert.Equal(t, s.want, status, "step %d %s", i, s.action)
	}

	assert.Contains(t, logs.String(), "render 2")
	assert.Contains(t, logs.String(), "module=luafx")
}

func TestDefaultScript_MissingPropertySuite(t *testing.T) {
	e := newEffect(t, "")
	_, err := handle(t, e, ofx.SetHost{Host: &ofx.Host{}})
	require.NoError(t, err)

	status, err := handle(t, e, ofx.Call{Action: ofx.ActionDescribe})
	require.NoError(t, err)
	assert.Equal(t, ofx.StatErrMissingHostFeature, status)
}

func TestDefaultScript_CreateBeforeLoad(t *testing.T) {
	e := newEffect(t, "")
	_, err := handle(t, e, ofx.SetHost{Host: fullHost()})
	require.NoError(t, err)

	status, err := handle(t, e, ofx.Call{Action: ofx.ActionCreateInstance, Handle: ofx.Handle(unsafe.Pointer(new(int)))})
	assert.Equal(t, ofx.StatFailed, status)
	errutil.AssertErrorCode(t, err, ofx.CodeActionFailed)
	assert.ErrorContains(t, err, "plugin not loaded")
}

func TestHandlerReturnTypes(t *testing.T) {
	e := newEffect(t, `
actions = {
  OfxActionPurgeCaches = function() return "nope" end,
  OfxActionSyncPrivateData = function() return ofx.status.ErrMemory end,
  NotAnAction = function() end,
  OfxActionLoad = 42,
}`)
	_, err := handle(t, e, ofx.SetHost{Host: &ofx.Host{}})
	require.NoError(t, err)

	status, err := handle(t, e, ofx.Call{Action: ofx.ActionPurgeCaches})
	assert.Equal(t, ofx.StatErrValue, status)
	assert.Error(t, err)

	status, err = handle(t, e, ofx.Call{Action: ofx.ActionSyncPrivateData})
	require.NoError(t, err)
	assert.Equal(t, ofx.StatErrMemory, status)

	status, err = handle(t, e, ofx.Call{Action: ofx.ActionLoad})
	assert.Equal(t, ofx.StatReplyDefault, status)
	assert.True(t, ofx.IsUnsupported(err))
}

func TestHandlerNumbersMustBeStatusCodes(t *testing.T) {
	e := newEffect(t, `
actions = {
  OfxActionPurgeCaches = function() return 1e12 end,
  OfxActionSyncPrivateData = function() return 2.5 end,
  OfxActionBeginInstanceEdit = function() return -1 end,
  OfxActionEndInstanceEdit = function() return 14 end,
}`)
	_, err := handle(t, e, ofx.SetHost{Host: &ofx.Host{}})
	require.NoError(t, err)

	for _, action := range []ofx.Action{ofx.ActionPurgeCaches, ofx.ActionSyncPrivateData, ofx.ActionBeginInstanceEdit} {
		status, err := handle(t, e, ofx.Call{Action: action})
		assert.Equal(t, ofx.StatErrValue, status, action.String())
		errutil.AssertErrorCode(t, err, ofx.CodeActionFailed)
	}

	status, err := handle(t, e, ofx.Call{Action: ofx.ActionEndInstanceEdit})
	require.NoError(t, err)
	assert.Equal(t, ofx.StatReplyDefault, status)
}

func TestScriptWithoutActionsTable(t *testing.T) {
	e := newEffect(t, `x = 1`)

	status, err := handle(t, e, ofx.Call{Action: ofx.ActionLoad})
	assert.Equal(t, ofx.StatErrFatal, status)
	errutil.AssertErrorCode(t, err, ofx.CodeActionFailed)

	// The failure is sticky.
	status, _ = handle(t, e, ofx.SetHost{Host: &ofx.Host{}})
	assert.Equal(t, ofx.StatErrFatal, status)
}

func TestScriptCannotReachSandboxedLibraries(t *testing.T) {
	e := newEffect(t, `
actions = {
  OfxActionPurgeCaches = function() os.exit(1) end,
}`)
	_, err := handle(t, e, ofx.SetHost{Host: &ofx.Host{}})
	require.NoError(t, err)

	status, err := handle(t, e, ofx.Call{Action: ofx.ActionPurgeCaches})
	assert.Equal(t, ofx.StatFailed, status)
	assert.Error(t, err)
}

func TestDefinition(t *testing.T) {
	m, err := luafx.Definition(nil)
	require.NoError(t, err)
	assert.Equal(t, "luafx", m.Name)
	assert.Equal(t, luafx.Identifier, m.DisplayName)
	assert.Equal(t, "0.3", m.PluginVersion.String())
	assert.IsType(t, &luafx.Effect{}, m.Factory())
}
