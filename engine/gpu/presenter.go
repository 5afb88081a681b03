package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/chaos-go/engine/gpu/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/blit.wgsl
var blitSource string

// presenter draws the output buffer onto the surface with a fullscreen triangle.
type presenter struct {
	pipeline   *wgpu.RenderPipeline
	bindLayout *wgpu.BindGroupLayout
	layout     *wgpu.PipelineLayout
	module     *wgpu.ShaderModule
	viewBuf    *wgpu.Buffer
	bindGroup  *wgpu.BindGroup
	generation uint64
}

// preferredSurfaceFormats are the linear formats tried before the first reported one.
// Kernel output is already display-ready.
var preferredSurfaceFormats = []wgpu.TextureFormat{
	wgpu.TextureFormatBGRA8Unorm,
	wgpu.TextureFormatRGBA8Unorm,
}

// pickSurfaceFormat returns the first preferred format the surface supports, or its first format.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range preferredSurfaceFormats {
		if slices.Contains(formats, f) {
			return f
		}
	}
	return formats[0]
}

func (c *gpuContext) ConfigureSurface(width, height int) error {
	if c.surface == nil {
		return ErrNoSurface
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	capabilities := c.surface.GetCapabilities(c.adapter)
	if len(capabilities.Formats) == 0 {
		return fmt.Errorf("surface reports no formats: %w", ErrNoSurface)
	}
	format := pickSurfaceFormat(capabilities.Formats)
	if c.presenter != nil && format != c.surfaceFormat {
		c.presenter.release()
		c.presenter = nil
	}
	c.surfaceFormat = format

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: c.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	return nil
}

func (c *gpuContext) Present() error {
	if c.surface == nil {
		return ErrNoSurface
	}
	if c.output == nil {
		return ErrNoOutput
	}
	if c.presenter == nil {
		p, err := c.newPresenter()
		if err != nil {
			return err
		}
		c.presenter = p
	}
	if err := c.presenter.prepare(c); err != nil {
		return err
	}

	surfaceTexture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(c.presenter.pipeline)
	pass.SetBindGroup(0, c.presenter.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
	pass.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	c.queue.Submit(commandBuffer)
	c.surface.Present()
	return nil
}

func (c *gpuContext) newPresenter() (*presenter, error) {
	s, err := shader.NewShader("Blit", blitSource)
	if err != nil {
		return nil, err
	}

	p := &presenter{}
	if p.module, err = c.device.CreateShaderModule(s.Module()); err != nil {
		return nil, fmt.Errorf("create blit module: %w", err)
	}

	desc := s.BindGroupLayoutDescriptors()[0]
	desc.Label = "Blit Bind Group Layout"
	if p.bindLayout, err = c.device.CreateBindGroupLayout(&desc); err != nil {
		p.release()
		return nil, fmt.Errorf("create blit bind group layout: %w", err)
	}
	if p.layout, err = c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Blit",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bindLayout},
	}); err != nil {
		p.release()
		return nil, fmt.Errorf("create blit pipeline layout: %w", err)
	}

	p.pipeline, err = c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Blit Render Pipeline",
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: "vsMain",
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: "fsMain",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    c.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("create blit pipeline: %w", err)
	}

	if p.viewBuf, err = c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Blit View",
		Size:  16,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}); err != nil {
		p.release()
		return nil, fmt.Errorf("create blit view buffer: %w", err)
	}

	return p, nil
}

// prepare points the bind group at the current output and uploads its size.
func (p *presenter) prepare(c *gpuContext) error {
	if p.bindGroup != nil && p.generation == c.generation {
		return nil
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}

	view := make([]byte, 16)
	binary.LittleEndian.PutUint32(view[0:], uint32(c.width))
	binary.LittleEndian.PutUint32(view[4:], uint32(c.height))
	if err := c.queue.WriteBuffer(p.viewBuf, 0, view); err != nil {
		return fmt.Errorf("write blit view: %w", err)
	}

	bg, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Blit Bind Group",
		Layout: p.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: c.output, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: p.viewBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create blit bind group: %w", err)
	}
	p.bindGroup = bg
	p.generation = c.generation
	return nil
}

func (p *presenter) release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	if p.viewBuf != nil {
		p.viewBuf.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.layout != nil {
		p.layout.Release()
	}
	if p.bindLayout != nil {
		p.bindLayout.Release()
	}
	if p.module != nil {
		p.module.Release()
	}
}
