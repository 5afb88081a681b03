package shader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeSource = `
struct Frame {
    seed: u32,
    reset: u32,
    pad0: u32,
    pad1: u32,
}

@group(0) @binding(1) var<storage, read_write> output: array<u32>;
@group(0) @binding(0) var<storage, read> params: array<u32>;
@group(0) @binding(4) var<uniform> frame: Frame;
// @group(1) @binding(0) var<uniform> ignored: Frame;

/* @compute @workgroup_size(2) fn commented() {} */

@compute @workgroup_size(8, 8, 1)
fn first(@builtin(global_invocation_id) gid: vec3<u32>) {
}

@workgroup_size(64) @compute
fn second() {
}

@compute
fn third() {
}

fn helper() -> u32 {
    return 1u;
}
`

func TestEntryPoints(t *testing.T) {
	s, err := NewShader("test", computeSource)
	require.NoError(t, err)

	entries := s.EntryPoints()
	require.Len(t, entries, 3)
	assert.Equal(t, EntryPoint{Name: "first", Stage: StageCompute, WorkgroupSize: [3]uint32{8, 8, 1}}, entries[0])
	assert.Equal(t, EntryPoint{Name: "second", Stage: StageCompute, WorkgroupSize: [3]uint32{64, 1, 1}}, entries[1])
	assert.Equal(t, EntryPoint{Name: "third", Stage: StageCompute, WorkgroupSize: [3]uint32{1, 1, 1}}, entries[2])

	_, ok := s.EntryPoint("helper")
	assert.False(t, ok)
	_, ok = s.EntryPoint("commented")
	assert.False(t, ok)
	_, ok = s.EntryPoint("First")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestBindGroupLayouts(t *testing.T) {
	s, err := NewShader("test", computeSource)
	require.NoError(t, err)

	layouts := s.BindGroupLayoutDescriptors()
	require.Len(t, layouts, 1, "commented-out group must be ignored")

	entries := layouts[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[0].Buffer.Type)
	assert.Equal(t, uint64(4), entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint32(1), entries[1].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, entries[1].Buffer.Type)
	assert.Equal(t, uint32(4), entries[2].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[2].Buffer.Type)
	assert.Equal(t, uint64(16), entries[2].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageCompute, entries[2].Visibility)

	assert.Equal(t, "frame", s.BindGroupVarName(0, 4))
	assert.Equal(t, "", s.BindGroupVarName(3, 0))
	binding, ok := s.BindGroupFromVarName(0, "output")
	assert.True(t, ok)
	assert.Equal(t, 1, binding)
	_, ok = s.BindGroupFromVarName(0, "missing")
	assert.False(t, ok)
}

func TestRenderStagesShareVisibility(t *testing.T) {
	src := `
@group(0) @binding(0) var<storage, read> pixels: array<u32>;

@vertex
fn vs(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0);
}

@fragment
fn fs(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`
	s, err := NewShader("blit", src)
	require.NoError(t, err)

	ep, ok := s.EntryPoint("fs")
	require.True(t, ok)
	assert.Equal(t, StageFragment, ep.Stage)
	assert.Equal(t, [3]uint32{}, ep.WorkgroupSize)

	entry := s.BindGroupLayoutDescriptors()[0].Entries[0]
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entry.Visibility)
}

func TestNoEntryPoint(t *testing.T) {
	_, err := NewShader("empty", "fn helper() {}")
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestStructLayout(t *testing.T) {
	structs := parseStructBlocks(stripComments(`
struct Inner { a: vec2<f32>, b: u32 }
struct Outer { x: u32, inner: Inner, tail: array<vec4<f32>, 2> }
`))
	sizes := computeStructSizes(structs)
	assert.Equal(t, wgslTypeLayout{16, 8}, sizes["Inner"])
	assert.Equal(t, wgslTypeLayout{64, 16}, sizes["Outer"])

	layout, ok := resolveTypeLayout("array<Inner>", sizes)
	assert.True(t, ok)
	assert.Equal(t, wgslTypeLayout{16, 8}, layout)

	_, ok = resolveTypeLayout("texture_2d<f32>", sizes)
	assert.False(t, ok)
}

func TestPreProcessorIncludes(t *testing.T) {
	fsys := fstest.MapFS{
		"main.wgsl": {Data: []byte("//@chaos:fractal Test Set\n//@chaos:include a\n//@chaos:include b\nfn main_body() {}\n")},
		"a.wgsl":    {Data: []byte("//@chaos:include b\nfn a() {}\n")},
		"b.wgsl":    {Data: []byte("//@chaos:fractal Not Me\n//@chaos:include a\nfn b() {}\n")},
	}
	pp := NewPreProcessor(fsys)

	out, err := pp.Process("main")
	require.NoError(t, err)
	assert.Equal(t, "Test Set", pp.FractalName())

	assert.Equal(t, 1, strings.Count(out, "fn a()"))
	assert.Equal(t, 1, strings.Count(out, "fn b()"))
	assert.Less(t, strings.Index(out, "fn b()"), strings.Index(out, "fn a()"), "includes splice depth first")
	assert.NotContains(t, out, "@chaos:")
}

func TestPreProcessorErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"missing.wgsl": {Data: []byte("//@chaos:include nowhere\n")},
		"bad.wgsl":     {Data: []byte("//@chaos:unknown x\n")},
		"escape.wgsl":  {Data: []byte("//@chaos:include ../etc\n")},
		"bare.wgsl":    {Data: []byte("//@chaos:include\n")},
	}
	pp := NewPreProcessor(fsys)

	_, err := pp.Process("missing")
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, err = pp.Process("absent")
	assert.ErrorIs(t, err, ErrSourceNotFound)

	for _, name := range []string{"bad", "escape", "bare"} {
		_, err = pp.Process(name)
		assert.Error(t, err, name)
		assert.NotErrorIs(t, err, ErrSourceNotFound, name)
	}
}
