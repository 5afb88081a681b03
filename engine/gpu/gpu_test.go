package gpu

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/chaos-go/engine/gpu/shader"
	"github.com/Carmen-Shannon/chaos-go/engine/kernel"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fillSource = `
struct Frame {
    seed: u32,
    reset: u32,
    pad0: u32,
    pad1: u32,
}

@group(0) @binding(0) var<storage, read> params: array<u32>;
@group(0) @binding(1) var<storage, read_write> output: array<u32>;
@group(0) @binding(2) var<storage, read_write> accum: array<vec4<f32>>;
@group(0) @binding(3) var<storage, read> palette: array<u32>;
@group(0) @binding(4) var<uniform> frame: Frame;

@compute @workgroup_size(8, 8, 1)
fn fractalRenderMain(@builtin(global_invocation_id) gid: vec3<u32>) {
    let w = params[4];
    let h = params[5];
    if (gid.x >= w || gid.y >= h) {
        return;
    }
    let i = gid.y * w + gid.x;
    accum[i] = vec4<f32>(1.0, 1.0, 1.0, 1.0);
    output[(params[2] / 4u) * gid.y + gid.x] = palette[0] + gid.x + frame.seed;
}
`

func TestWorkgroupCount(t *testing.T) {
	assert.Equal(t, uint32(1), workgroupCount(1, 8))
	assert.Equal(t, uint32(1), workgroupCount(8, 8))
	assert.Equal(t, uint32(2), workgroupCount(9, 8))
	assert.Equal(t, uint32(80), workgroupCount(640, 8))
	assert.Equal(t, uint32(7), workgroupCount(7, 0))
}

func TestFrameUniform(t *testing.T) {
	b := frameUniform(kernel.LaunchOptions{Seed: 7, ResetAccumulation: true})
	require.Len(t, b, frameUniformSize)
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[0:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[4:]))

	b = frameUniform(kernel.LaunchOptions{})
	assert.Equal(t, make([]byte, frameUniformSize), b)
}

func TestPickSurfaceFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm,
		pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatBGRA8Unorm}))
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb,
		pickSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA8UnormSrgb}))
}

func TestBlitSourceParses(t *testing.T) {
	s, err := shader.NewShader("Blit", blitSource)
	require.NoError(t, err)
	_, ok := s.EntryPoint("vsMain")
	assert.True(t, ok)
	_, ok = s.EntryPoint("fsMain")
	assert.True(t, ok)
	assert.Equal(t, "pixels", s.BindGroupVarName(0, 0))
}

// newTestContext returns a headless context, skipping the test when the machine has no usable adapter.
func newTestContext(t *testing.T) Context {
	t.Helper()
	c, err := NewContext()
	if err != nil {
		t.Skipf("no WebGPU adapter available: %v", err)
	}
	t.Cleanup(c.Release)
	return c
}

func TestLaunchAndReadBack(t *testing.T) {
	c := newTestContext(t)

	s, err := shader.NewShader("fill", fillSource)
	require.NoError(t, err)
	m, err := c.CompileModule(s)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Function(kernel.EntryPointDouble)
	assert.ErrorIs(t, err, kernel.ErrNotFound)

	fn, err := m.Function(kernel.EntryPointSingle)
	require.NoError(t, err)
	assert.Equal(t, kernel.EntryPointSingle, fn.Name())

	out, err := c.AllocOutput(16, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(64), out.Pitch)
	require.NoError(t, c.SetPalette([]uint32{0x01020304}))

	a, err := kernel.NewAdapter(kernel.WithOutputSize(16, 8))
	require.NoError(t, err)
	a.SetOutput(out)

	err = fn.Launch(context.Background(), a.Block(), kernel.LaunchOptions{Width: 16, Height: 8, Seed: 2})
	require.NoError(t, err)

	img, err := c.ReadOutput(context.Background())
	require.NoError(t, err)
	require.Equal(t, 16, img.Width)
	require.Equal(t, 8, img.Height)
	require.Len(t, img.Pixels, 16*8*4)

	at := func(x, y int) uint32 {
		return binary.LittleEndian.Uint32(img.Pixels[(y*16+x)*4:])
	}
	assert.Equal(t, uint32(0x01020304+2), at(0, 0))
	assert.Equal(t, uint32(0x01020304+2+15), at(15, 7))
}

func TestLaunchRejectsStaleOutput(t *testing.T) {
	c := newTestContext(t)

	s, err := shader.NewShader("fill", fillSource)
	require.NoError(t, err)
	m, err := c.CompileModule(s)
	require.NoError(t, err)
	defer m.Close()
	fn, err := m.Function(kernel.EntryPointSingle)
	require.NoError(t, err)

	a, err := kernel.NewAdapter(kernel.WithOutputSize(8, 8))
	require.NoError(t, err)

	err = fn.Launch(context.Background(), a.Block(), kernel.LaunchOptions{Width: 8, Height: 8})
	assert.ErrorIs(t, err, ErrNoOutput)

	old, err := c.AllocOutput(8, 8)
	require.NoError(t, err)
	a.SetOutput(old)
	_, err = c.AllocOutput(8, 8)
	require.NoError(t, err)

	err = fn.Launch(context.Background(), a.Block(), kernel.LaunchOptions{Width: 8, Height: 8})
	assert.ErrorIs(t, err, kernel.ErrInvalidArgument)

	err = fn.Launch(context.Background(), a.Block(), kernel.LaunchOptions{Width: 9, Height: 8})
	assert.ErrorIs(t, err, kernel.ErrInvalidArgument)
}

func TestCompileRejectsForeignLayout(t *testing.T) {
	c := newTestContext(t)

	s, err := shader.NewShader("partial", `
@group(0) @binding(0) var<storage, read> params: array<u32>;

@compute @workgroup_size(1)
fn fractalRenderMain() {
}
`)
	require.NoError(t, err)
	_, err = c.CompileModule(s)
	assert.ErrorIs(t, err, kernel.ErrInvalidArgument)
}

func TestHeadlessHasNoSurface(t *testing.T) {
	c := newTestContext(t)
	assert.False(t, c.HasSurface())
	assert.ErrorIs(t, c.ConfigureSurface(8, 8), ErrNoSurface)
	assert.ErrorIs(t, c.Present(), ErrNoSurface)
}
