// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package bundle_test

import (
	"context"
	"sync"
	"unsafe"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/ofxbundle/internal/simulate"
	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
	"github.com/holomush/ofxbundle/plugins/blur"
	"github.com/holomush/ofxbundle/plugins/luafx"
	"github.com/holomush/ofxbundle/plugins/sharpen"
)

// The process-wide facade can be installed once, so the whole suite shares
// one bundle and the effects it created.
var (
	blurFx    *blur.Effect
	sharpenFx *sharpen.Effect
	facade    *bundle.Facade
)

var _ = BeforeSuite(func() {
	lua, err := luafx.Definition(nil)
	Expect(err).NotTo(HaveOccurred())

	facade = bundle.Install(bundle.Modules(
		bundle.Define[blur.Module](blur.Identifier, 1, blur.Version, func() ofx.Executable {
			blurFx = blur.New()
			return blurFx
		}),
		bundle.Define[sharpen.Module](sharpen.Identifier, 1, sharpen.Version, func() ofx.Executable {
			sharpenFx = sharpen.New()
			return sharpenFx
		}),
		lua,
	))
})

var _ = Describe("OFX entry points", Ordered, func() {
	It("builds nothing until the host first calls in", func() {
		Expect(facade.Initialized()).To(BeFalse())
		Expect(blurFx).To(BeNil())
	})

	It("initializes exactly once under concurrent first calls", func() {
		var wg sync.WaitGroup
		counts := make([]int, 16)
		for i := range counts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				counts[i] = bundle.GetNumberOfPlugins()
			}()
		}
		wg.Wait()

		for _, n := range counts {
			Expect(n).To(Equal(3))
		}
		Expect(facade.Initialized()).To(BeTrue())
	})

	It("enumerates plugins in registration order", func() {
		identifiers := make([]string, 0, 3)
		for i := range bundle.GetNumberOfPlugins() {
			p := bundle.GetPlugin(i)
			Expect(p).NotTo(BeNil())
			Expect(p.PluginAPI).To(Equal(ofx.ImageEffectPluginAPI))
			identifiers = append(identifiers, p.Identifier)
		}
		Expect(identifiers).To(Equal([]string{blur.Identifier, sharpen.Identifier, luafx.Identifier}))
		Expect(bundle.GetPlugin(0).Version()).To(Equal(blur.Version))
	})

	It("answers an out-of-range index with nil", func() {
		Expect(bundle.GetPlugin(3)).To(BeNil())
		Expect(bundle.GetPlugin(-1)).To(BeNil())
	})

	It("fails a render sent before set-host", func() {
		status := bundle.GetPlugin(0).MainEntry(ofx.ActionRender.String(), nil, nil, nil)
		Expect(status).To(Equal(ofx.StatFailed))
		Expect(blurFx.Stats().Renders).To(BeZero())
	})

	It("routes calls through each plugin's own shim", func() {
		host := simulate.StandardHost()
		p := bundle.GetPlugin(1)
		p.SetHost(host)

		var inst int
		handle := ofx.Handle(unsafe.Pointer(&inst))
		Expect(p.MainEntry(ofx.ActionLoad.String(), nil, nil, nil)).To(Equal(ofx.StatOK))
		Expect(p.MainEntry(ofx.ActionCreateInstance.String(), handle, nil, nil)).To(Equal(ofx.StatOK))
		Expect(p.MainEntry(ofx.ActionRender.String(), handle, nil, nil)).To(Equal(ofx.StatOK))

		Expect(sharpenFx.Host()).To(BeIdenticalTo(host))
		Expect(sharpenFx.Stats().Renders).To(Equal(1))

		Expect(blurFx.Host()).To(BeNil())
		Expect(blurFx.Stats()).To(BeZero())
	})

	It("gives unknown actions the default reply", func() {
		Expect(bundle.GetPlugin(1).MainEntry("OfxActionNotInTheCatalog", nil, nil, nil)).
			To(Equal(ofx.StatReplyDefault))
	})

	It("reports unresolved for a module that was never registered", func() {
		Expect(bundle.MainEntryForPlugin("emboss", ofx.ActionLoad.String(), nil, nil, nil)).
			To(Equal(ofx.StatusUnresolved))
	})

	It("describes every plugin", func() {
		Expect(bundle.DescribePlugins()).To(Equal([]string{
			`0:blur "net.example.blur" api=1 v=1.0`,
			`1:sharpen "net.example.sharpen" api=1 v=1.2`,
			`2:luafx "net.example.luafx" api=1 v=0.3`,
		}))
	})

	It("survives a full simulated host session", func() {
		results, err := simulate.Run(context.Background(), facade, simulate.Options{Renders: 2, Concurrency: 3})
		Expect(err).NotTo(HaveOccurred())
		for _, r := range results {
			Expect(r.OK()).To(BeTrue(), "%s: %v", r.Module, r.Steps)
		}
	})
})
