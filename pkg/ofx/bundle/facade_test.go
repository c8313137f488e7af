// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bundle_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/ofxbundle/pkg/errutil"
	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
	"github.com/holomush/ofxbundle/pkg/ofx/registry"
)

type blurModule struct{}

func (blurModule) ModuleName() string { return "blur" }

type sharpenModule struct{}

func (sharpenModule) ModuleName() string { return "sharpen" }

// effect is a minimal plugin: a Router whose render handler counts calls.
type effect struct {
	*ofx.Router
	renders atomic.Int32
}

func newEffect() *effect {
	e := &effect{Router: ofx.NewRouter()}
	e.On(ofx.ActionRender, func(context.Context, *ofx.Host, ofx.Call) (ofx.Status, error) {
		e.renders.Add(1)
		return ofx.StatOK, nil
	})
	return e
}

// testBundle declares blur and sharpen and keeps the Executables it creates.
type testBundle struct {
	blur    *effect
	sharpen *effect
}

func (b *testBundle) modules() []bundle.Module {
	return []bundle.Module{
		bundle.Define[blurModule]("blur", 1, ofx.PluginVersion{Major: 1, Minor: 0}, func() ofx.Executable {
			b.blur = newEffect()
			return b.blur
		}),
		bundle.Define[sharpenModule]("sharpen", 1, ofx.PluginVersion{Major: 1, Minor: 2}, func() ofx.Executable {
			b.sharpen = newEffect()
			return b.sharpen
		}),
	}
}

func TestFacade_LazyInitialization(t *testing.T) {
	var builds atomic.Int32
	f := bundle.NewFacade(func(r *registry.Registry) error {
		builds.Add(1)
		return bundle.Modules(bundle.Define[blurModule]("blur", 1, ofx.PluginVersion{Major: 1}, func() ofx.Executable {
			return newEffect()
		}))(r)
	})

	assert.False(t, f.Initialized())
	assert.Equal(t, int32(0), builds.Load())

	assert.Equal(t, 1, f.Count())
	assert.True(t, f.Initialized())
	assert.True(t, f.Registry().Sealed())

	for range 10 {
		f.EnsureInitialized()
		assert.Equal(t, 1, f.Count())
	}
	assert.Equal(t, int32(1), builds.Load())
}

func TestFacade_EveryEntryPointInitializes(t *testing.T) {
	entryPoints := map[string]func(f *bundle.Facade){
		"count":      func(f *bundle.Facade) { f.Count() },
		"get_plugin": func(f *bundle.Facade) { f.Plugin(0) },
		"set_host":   func(f *bundle.Facade) { f.SetHost("blur", &ofx.Host{}) },
		"main_entry": func(f *bundle.Facade) { f.MainEntry("blur", "OfxActionLoad", nil, nil, nil) },
	}

	for name, call := range entryPoints {
		t.Run(name, func(t *testing.T) {
			var builds atomic.Int32
			tb := &testBundle{}
			f := bundle.NewFacade(func(r *registry.Registry) error {
				builds.Add(1)
				return bundle.Modules(tb.modules()...)(r)
			})

			call(f)
			call(f)
			assert.True(t, f.Initialized())
			assert.Equal(t, int32(1), builds.Load())
			assert.Equal(t, 2, f.Count())
		})
	}
}

func TestFacade_ConcurrentFirstCallsBuildOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	var builds atomic.Int32
	tb := &testBundle{}
	f := bundle.NewFacade(func(r *registry.Registry) error {
		builds.Add(1)
		return bundle.Modules(tb.modules()...)(r)
	})

	const callers = 64
	counts := make([]int, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch i % 4 {
			case 0:
				counts[i] = f.Count()
			case 1:
				f.Plugin(0)
				counts[i] = f.Registry().Count()
			case 2:
				f.SetHost("blur", &ofx.Host{})
				counts[i] = f.Registry().Count()
			default:
				f.MainEntry("sharpen", "OfxActionLoad", nil, nil, nil)
				counts[i] = f.Registry().Count()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for i, c := range counts {
		assert.Equal(t, 2, c, "caller %d", i)
	}
}

func TestFacade_RegistryBeforeInitPanics(t *testing.T) {
	f := bundle.NewFacade(bundle.Modules())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		errutil.AssertErrorCode(t, err, ofx.CodeNotInitialized)
	}()
	f.Registry()
}

func TestFacade_BuildErrorIsFatal(t *testing.T) {
	f := bundle.NewFacade(func(*registry.Registry) error {
		return errors.New("malformed static configuration")
	}, bundle.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	assert.Panics(t, func() { f.Count() })
	assert.False(t, f.Initialized())
}

func TestFacade_DuplicateModuleIsFatal(t *testing.T) {
	m := bundle.Define[blurModule]("blur", 1, ofx.PluginVersion{Major: 1}, func() ofx.Executable { return newEffect() })
	f := bundle.NewFacade(bundle.Modules(m, m),
		bundle.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	assert.Panics(t, func() { f.Count() })
}

func TestNewFacade_NilBuildPanics(t *testing.T) {
	assert.Panics(t, func() { bundle.NewFacade(nil) })
}

func TestFacade_PluginOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...),
		bundle.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	assert.Nil(t, f.Plugin(2))
	assert.Nil(t, f.Plugin(-1))
	assert.Contains(t, buf.String(), "host requested an invalid plugin index")
	assert.Contains(t, buf.String(), ofx.CodeBadIndex)
}

func TestFacade_UnknownModule(t *testing.T) {
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...))

	for _, msg := range []ofx.RawMessage{
		ofx.SetHost{Host: &ofx.Host{}},
		ofx.MainEntry{Action: "OfxImageEffectActionRender"},
		ofx.MainEntry{Action: "NotAnAction"},
	} {
		var status ofx.Status
		var err error
		assert.NotPanics(t, func() {
			status, err = f.Dispatch(context.Background(), "not-registered", msg)
		})
		assert.Equal(t, ofx.StatusUnresolved, status)
		errutil.AssertErrorCode(t, err, ofx.CodePluginNotFound)
	}

	assert.NotPanics(t, func() { f.SetHost("not-registered", &ofx.Host{}) })
	assert.Equal(t, ofx.StatusUnresolved, f.MainEntry("not-registered", "OfxActionLoad", nil, nil, nil))
}

func TestFacade_UnknownActionIsNotHandled(t *testing.T) {
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...))
	f.SetHost("blur", &ofx.Host{})

	status := f.MainEntry("blur", "OfxImageEffectActionSomethingOptional", nil, nil, nil)
	assert.Equal(t, ofx.StatReplyDefault, status)
	assert.False(t, status.Failed())
}

func TestFacade_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...),
		bundle.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	status := f.MainEntry("blur", "OfxImageEffectActionRender", nil, nil, nil)
	assert.Equal(t, ofx.StatFailed, status)
	assert.Contains(t, buf.String(), "plugin dispatch failed")
	assert.Contains(t, buf.String(), "module=blur")
	assert.Contains(t, buf.String(), "call_id=")
}

func TestFacade_DispatchMetrics(t *testing.T) {
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...))
	f.SetHost("sharpen", &ofx.Host{})

	before := testutil.ToFloat64(bundle.DispatchTotal.WithLabelValues("sharpen", "OfxImageEffectActionRender", "kOfxStatOK"))
	f.MainEntry("sharpen", "OfxImageEffectActionRender", nil, nil, nil)
	f.MainEntry("sharpen", "OfxImageEffectActionRender", nil, nil, nil)
	after := testutil.ToFloat64(bundle.DispatchTotal.WithLabelValues("sharpen", "OfxImageEffectActionRender", "kOfxStatOK"))

	assert.InDelta(t, 2, after-before, 0.001)
}

func TestFacade_DispatchLabelsAreBounded(t *testing.T) {
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...))
	f.SetHost("blur", &ofx.Host{})

	before := testutil.CollectAndCount(bundle.DispatchTotal)
	for i := range 200 {
		f.MainEntry("blur", fmt.Sprintf("OfxActionMadeUp%d", i), nil, nil, nil)
		f.MainEntry(fmt.Sprintf("module%d", i), "OfxActionLoad", nil, nil, nil)
	}
	after := testutil.CollectAndCount(bundle.DispatchTotal)

	assert.LessOrEqual(t, after-before, 2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(
		bundle.DispatchTotal.WithLabelValues("blur", ofx.UnknownAction, ofx.StatReplyDefault.String())), 200.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(
		bundle.DispatchTotal.WithLabelValues("unresolved", "OfxActionLoad", ofx.StatusUnresolved.String())), 200.0)
}

func TestFacade_RawActionOnlyInDebugLog(t *testing.T) {
	var buf bytes.Buffer
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...),
		bundle.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	f.SetHost("blur", &ofx.Host{})

	f.MainEntry("blur", "OfxActionFromTheFuture", nil, nil, nil)
	assert.Contains(t, buf.String(), "action=OfxActionFromTheFuture")
}

func TestFacade_Describe(t *testing.T) {
	tb := &testBundle{}
	f := bundle.NewFacade(bundle.Modules(tb.modules()...))

	assert.Equal(t, []string{
		`0:blur "blur" api=1 v=1.0`,
		`1:sharpen "sharpen" api=1 v=1.2`,
	}, f.Describe())
}
