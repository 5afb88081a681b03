package gpu

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/chaos-go/engine/gpu/shader"
	"github.com/Carmen-Shannon/chaos-go/engine/kernel"
	"github.com/Carmen-Shannon/chaos-go/engine/params"
	"github.com/cogentcore/webgpu/wgpu"
)

// frameUniformSize is the size of the per-dispatch uniform {seed, reset, pad, pad}.
const frameUniformSize = 16

// minParamsSize is the smallest params buffer allocated, large enough for either precision layout.
const minParamsSize = 256

// requiredBindings lists the group 0 bindings a render kernel must declare.
var requiredBindings = []int{BindingParams, BindingOutput, BindingAccum, BindingPalette, BindingFrame}

// module is the implementation of kernel.Module on a gpuContext.
type module struct {
	ctx            *gpuContext
	shader         shader.Shader
	shaderModule   *wgpu.ShaderModule
	bindLayout     *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	functions      map[string]*function
}

// function is one compute pipeline of a module with its own params and frame buffers.
type function struct {
	module   *module
	entry    shader.EntryPoint
	pipeline *wgpu.ComputePipeline

	paramsBuf  *wgpu.Buffer
	frameBuf   *wgpu.Buffer
	bindGroup  *wgpu.BindGroup
	generation uint64
}

var (
	_ kernel.Module   = &module{}
	_ kernel.Function = &function{}
)

func (c *gpuContext) CompileModule(s shader.Shader) (kernel.Module, error) {
	desc, ok := s.BindGroupLayoutDescriptors()[0]
	if !ok {
		return nil, fmt.Errorf("%s: no bind group 0: %w", s.Key(), kernel.ErrInvalidArgument)
	}
	for _, binding := range requiredBindings {
		if s.BindGroupVarName(0, binding) == "" {
			return nil, fmt.Errorf("%s: binding %d missing from group 0: %w", s.Key(), binding, kernel.ErrInvalidArgument)
		}
	}

	m := &module{
		ctx:       c,
		shader:    s,
		functions: make(map[string]*function),
	}

	sm, err := c.device.CreateShaderModule(s.Module())
	if err != nil {
		return nil, fmt.Errorf("%s: create shader module: %w", s.Key(), err)
	}
	m.shaderModule = sm

	desc.Label = s.Key() + " Bind Group Layout"
	bgl, err := c.device.CreateBindGroupLayout(&desc)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("%s: create bind group layout: %w", s.Key(), err)
	}
	m.bindLayout = bgl

	pl, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            s.Key(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("%s: create pipeline layout: %w", s.Key(), err)
	}
	m.pipelineLayout = pl

	for _, ep := range s.EntryPoints() {
		if ep.Stage != shader.StageCompute {
			continue
		}
		created, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
			Label:  s.Key() + " " + ep.Name,
			Layout: pl,
			Compute: wgpu.ProgrammableStageDescriptor{
				Module:     sm,
				EntryPoint: ep.Name,
			},
		})
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("%s: create pipeline %s: %w", s.Key(), ep.Name, err)
		}
		m.functions[ep.Name] = &function{module: m, entry: ep, pipeline: created}
	}

	return m, nil
}

func (m *module) Function(name string) (kernel.Function, error) {
	f, ok := m.functions[name]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", m.shader.Key(), name, kernel.ErrNotFound)
	}
	return f, nil
}

func (m *module) Close() error {
	for _, f := range m.functions {
		f.release()
	}
	m.functions = map[string]*function{}
	if m.pipelineLayout != nil {
		m.pipelineLayout.Release()
		m.pipelineLayout = nil
	}
	if m.bindLayout != nil {
		m.bindLayout.Release()
		m.bindLayout = nil
	}
	if m.shaderModule != nil {
		m.shaderModule.Release()
		m.shaderModule = nil
	}
	return nil
}

func (f *function) Name() string {
	return f.entry.Name
}

func (f *function) Launch(ctx context.Context, block *params.Block, opts kernel.LaunchOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := f.module.ctx
	if c.output == nil {
		return ErrNoOutput
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.Width > c.width || opts.Height > c.height {
		return fmt.Errorf("launch %dx%d on %dx%d output: %w", opts.Width, opts.Height, c.width, c.height, kernel.ErrInvalidArgument)
	}

	ptr, err := block.Get(0)
	if err != nil {
		return err
	}
	if ptr.Kind() != params.KindDevicePtr || ptr.PtrAt(0) != c.outputID {
		return fmt.Errorf("parameter block targets output %v, current is %d: %w", ptr, c.outputID, kernel.ErrInvalidArgument)
	}

	data, err := block.Bytes()
	if err != nil {
		return err
	}
	if err := f.prepare(uint64(len(data))); err != nil {
		return err
	}
	if err := c.queue.WriteBuffer(f.paramsBuf, 0, data); err != nil {
		return fmt.Errorf("write params: %w", err)
	}
	if err := c.queue.WriteBuffer(f.frameBuf, 0, frameUniform(opts)); err != nil {
		return fmt.Errorf("write frame uniform: %w", err)
	}

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(f.pipeline)
	pass.SetBindGroup(0, f.bindGroup, nil)
	pass.DispatchWorkgroups(
		workgroupCount(opts.Width, f.entry.WorkgroupSize[0]),
		workgroupCount(opts.Height, f.entry.WorkgroupSize[1]),
		1,
	)
	pass.End()
	pass.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	c.queue.Submit(commandBuffer)

	return c.waitIdle(ctx)
}

// prepare makes sure the params and frame buffers exist and the bind group matches the context's
// current shared buffers.
func (f *function) prepare(paramsSize uint64) error {
	c := f.module.ctx
	rebuild := f.bindGroup == nil || f.generation != c.generation

	if f.paramsBuf == nil || f.paramsBuf.GetSize() < paramsSize {
		if f.paramsBuf != nil {
			f.paramsBuf.Release()
		}
		buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: f.entry.Name + " Params",
			Size:  max(minParamsSize, roundUp(paramsSize, 16)),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			f.paramsBuf = nil
			return fmt.Errorf("create params buffer: %w", err)
		}
		f.paramsBuf = buf
		rebuild = true
	}
	if f.frameBuf == nil {
		buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: f.entry.Name + " Frame",
			Size:  frameUniformSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create frame buffer: %w", err)
		}
		f.frameBuf = buf
		rebuild = true
	}
	if !rebuild {
		return nil
	}

	if f.bindGroup != nil {
		f.bindGroup.Release()
		f.bindGroup = nil
	}
	bg, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  f.entry.Name + " Bind Group",
		Layout: f.module.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: BindingParams, Buffer: f.paramsBuf, Size: wgpu.WholeSize},
			{Binding: BindingOutput, Buffer: c.output, Size: wgpu.WholeSize},
			{Binding: BindingAccum, Buffer: c.accum, Size: wgpu.WholeSize},
			{Binding: BindingPalette, Buffer: c.palette, Size: wgpu.WholeSize},
			{Binding: BindingFrame, Buffer: f.frameBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	f.bindGroup = bg
	f.generation = c.generation
	return nil
}

func (f *function) release() {
	for _, b := range []*wgpu.Buffer{f.paramsBuf, f.frameBuf} {
		if b != nil {
			b.Release()
		}
	}
	if f.bindGroup != nil {
		f.bindGroup.Release()
	}
	if f.pipeline != nil {
		f.pipeline.Release()
	}
	f.paramsBuf, f.frameBuf, f.bindGroup, f.pipeline = nil, nil, nil, nil
}

// frameUniform encodes the per-dispatch uniform: seed, reset flag and two words of padding.
func frameUniform(opts kernel.LaunchOptions) []byte {
	out := make([]byte, frameUniformSize)
	binary.LittleEndian.PutUint32(out[0:], opts.Seed)
	if opts.ResetAccumulation {
		binary.LittleEndian.PutUint32(out[4:], 1)
	}
	return out
}

// workgroupCount returns how many workgroups of the given size cover n invocations.
func workgroupCount(n int, size uint32) uint32 {
	if size == 0 {
		size = 1
	}
	return (uint32(n) + size - 1) / size
}

func roundUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}
