// Package gpu runs the fractal compute kernels on WebGPU and presents their output.
//
// A Context owns the device and the buffers every kernel writes into: the packed RGBA output, the
// sample accumulator and the palette. Modules compiled on a context bind those buffers at launch, so
// reallocating the output (for example on resize) is picked up by the next dispatch without recompiling.
package gpu

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/gpu/shader"
	"github.com/Carmen-Shannon/chaos-go/engine/kernel"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoOutput is returned when a kernel is launched or read back before AllocOutput.
	ErrNoOutput = errors.New("gpu: output not allocated")

	// ErrNoSurface is returned by surface operations on a headless context.
	ErrNoSurface = errors.New("gpu: context has no surface")

	// ErrMapFailed is returned when a readback buffer could not be mapped.
	ErrMapFailed = errors.New("gpu: buffer map failed")
)

// Binding indices of the render kernel interface, all in group 0.
const (
	BindingParams  = 0
	BindingOutput  = 1
	BindingAccum   = 2
	BindingPalette = 3
	BindingFrame   = 4
)

// accumStride is the size of one accumulator element, a vec4<f32>.
const accumStride = 16

// gpuContext is the implementation of the Context interface.
type gpuContext struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surface       *wgpu.Surface
	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	presenter     *presenter

	output  *wgpu.Buffer
	accum   *wgpu.Buffer
	staging *wgpu.Buffer
	palette *wgpu.Buffer

	width, height int
	outputID      uint64

	// generation changes whenever a shared buffer is replaced; functions rebuild their bind group on mismatch.
	generation uint64
}

// Context is a WebGPU device together with the shared buffers the render kernels write into.
// It must be used from the thread that created it.
type Context interface {
	// Device returns the underlying WebGPU device.
	Device() *wgpu.Device

	// CompileModule creates the shader module and one compute pipeline per compute entry point.
	//
	// Parameters:
	//   - s: the parsed kernel source; its group 0 must follow the Binding* layout
	//
	// Returns:
	//   - kernel.Module: the compiled module
	//   - error: error if the module or a pipeline could not be created
	CompileModule(s shader.Shader) (kernel.Module, error)

	// AllocOutput (re)allocates the output and accumulator buffers for a width x height image.
	// Every call yields a new output identity; parameter blocks still carrying an older one are rejected at launch.
	//
	// Parameters:
	//   - width: the output width in pixels
	//   - height: the output height in pixels
	//
	// Returns:
	//   - kernel.Output: the output descriptor to store in the parameter block
	//   - error: kernel.ErrInvalidArgument on a non-positive size, or a buffer creation error
	AllocOutput(width, height int) (kernel.Output, error)

	// OutputSize returns the size of the current output, zero before AllocOutput.
	OutputSize() (int, int)

	// SetPalette uploads the palette colors as packed RGBA words.
	//
	// Returns:
	//   - error: kernel.ErrInvalidArgument on an empty palette, or a buffer error
	SetPalette(colors []uint32) error

	// ReadOutput copies the current output back to host memory and blocks until it is available.
	//
	// Returns:
	//   - *common.ImageData: an owned copy of the output pixels
	//   - error: ErrNoOutput before AllocOutput, ErrMapFailed, or ctx.Err()
	ReadOutput(ctx context.Context) (*common.ImageData, error)

	// HasSurface reports whether the context was created with a presentation surface.
	HasSurface() bool

	// ConfigureSurface sizes the presentation surface. It returns ErrNoSurface on a headless context.
	ConfigureSurface(width, height int) error

	// Present draws the current output onto the surface and presents it.
	Present() error

	// Release frees every buffer and the device.
	Release()
}

var _ Context = &gpuContext{}

// NewContext creates a WebGPU device. Without WithSurface the context is headless and can only compute
// and read back. The calling goroutine is locked to its OS thread, as the windowing layer requires.
//
// Parameters:
//   - options: functional options applied before the device is requested
//
// Returns:
//   - Context: the new context
//   - error: error if no adapter or device is available
func NewContext(options ...ContextBuilderOption) (Context, error) {
	runtime.LockOSThread()

	cfg := &contextConfig{presentMode: wgpu.PresentModeFifo}
	for _, opt := range options {
		opt(cfg)
	}

	c := &gpuContext{
		instance:    wgpu.CreateInstance(nil),
		presentMode: cfg.presentMode,
	}
	if cfg.surfaceDescriptor != nil {
		c.surface = c.instance.CreateSurface(cfg.surfaceDescriptor)
	}

	a, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	c.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Chaos Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.device = d
	c.queue = d.GetQueue()

	if err := c.SetPalette([]uint32{0xFFFFFFFF}); err != nil {
		c.Release()
		return nil, err
	}

	return c, nil
}

func (c *gpuContext) Device() *wgpu.Device {
	return c.device
}

func (c *gpuContext) OutputSize() (int, int) {
	return c.width, c.height
}

func (c *gpuContext) HasSurface() bool {
	return c.surface != nil
}

func (c *gpuContext) AllocOutput(width, height int) (kernel.Output, error) {
	if width <= 0 || height <= 0 {
		return kernel.Output{}, fmt.Errorf("output size %dx%d: %w", width, height, kernel.ErrInvalidArgument)
	}

	pixels := uint64(width) * uint64(height)
	output, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Output Buffer",
		Size:  pixels * 4,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return kernel.Output{}, fmt.Errorf("create output buffer: %w", err)
	}
	accum, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Accumulation Buffer",
		Size:  pixels * accumStride,
		Usage: wgpu.BufferUsageStorage,
	})
	if err != nil {
		output.Release()
		return kernel.Output{}, fmt.Errorf("create accumulation buffer: %w", err)
	}
	staging, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Buffer",
		Size:  pixels * 4,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		output.Release()
		accum.Release()
		return kernel.Output{}, fmt.Errorf("create readback buffer: %w", err)
	}

	c.releaseOutput()
	c.output, c.accum, c.staging = output, accum, staging
	c.width, c.height = width, height
	c.outputID++
	c.generation++

	return c.currentOutput(), nil
}

func (c *gpuContext) currentOutput() kernel.Output {
	return kernel.Output{Ptr: c.outputID, Pitch: int64(c.width) * 4}
}

func (c *gpuContext) SetPalette(colors []uint32) error {
	if len(colors) == 0 {
		return fmt.Errorf("empty palette: %w", kernel.ErrInvalidArgument)
	}

	data := common.SliceToBytes(colors)
	if c.palette == nil || c.palette.GetSize() != uint64(len(data)) {
		buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Palette Buffer",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create palette buffer: %w", err)
		}
		if c.palette != nil {
			c.palette.Release()
		}
		c.palette = buf
		c.generation++
	}

	if err := c.queue.WriteBuffer(c.palette, 0, data); err != nil {
		return fmt.Errorf("write palette: %w", err)
	}
	return nil
}

func (c *gpuContext) releaseOutput() {
	for _, b := range []*wgpu.Buffer{c.output, c.accum, c.staging} {
		if b != nil {
			b.Release()
		}
	}
	c.output, c.accum, c.staging = nil, nil, nil
}

func (c *gpuContext) Release() {
	if c.presenter != nil {
		c.presenter.release()
		c.presenter = nil
	}
	c.releaseOutput()
	if c.palette != nil {
		c.palette.Release()
		c.palette = nil
	}
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}

// waitIdle polls the device until submitted work completes or ctx is done.
func (c *gpuContext) waitIdle(ctx context.Context) error {
	for !c.device.Poll(false, nil) {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}
