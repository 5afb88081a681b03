// Package shader parses WGSL sources into the metadata the GPU backend needs to build pipelines:
// the entry points with their stages and workgroup sizes, and the bind group layouts.
package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoEntryPoint is returned when a source declares no entry point at all.
var ErrNoEntryPoint = errors.New("shader: no entry point declared")

// Stage identifies the pipeline stage an entry point belongs to.
type Stage int

const (
	// StageCompute marks a @compute entry point.
	StageCompute Stage = iota

	// StageVertex marks a @vertex entry point.
	StageVertex

	// StageFragment marks a @fragment entry point.
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageCompute:
		return "compute"
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// EntryPoint is one entry point declared in a shader source.
type EntryPoint struct {
	Name  string
	Stage Stage

	// WorkgroupSize is [x, y, z] for compute entries and zero for render entries.
	WorkgroupSize [3]uint32
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	entryPoints                []EntryPoint
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a parsed WGSL source. It exposes the source, every entry point and the bind group
// layouts inferred from the resource declarations.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	Key() string

	// Source retrieves the WGSL source code.
	Source() string

	// EntryPoints returns every entry point in source order.
	EntryPoints() []EntryPoint

	// EntryPoint looks up an entry point by exact, case-sensitive name.
	//
	// Parameters:
	//   - name: the function name of the entry point
	//
	// Returns:
	//   - EntryPoint: the entry point, zero if absent
	//   - bool: true if the source declares an entry point with that name
	EntryPoint(name string) (EntryPoint, bool)

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by
	// group index. Entry visibility is the union of the stages declared in the source.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index of a variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// Module returns the descriptor used to create the GPU shader module.
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader parses a WGSL source. Comments are stripped before parsing so commented-out
// declarations are ignored.
//
// Parameters:
//   - key: a unique identifier for the shader, used for labels and lookups
//   - source: the WGSL source, already pre-processed
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrNoEntryPoint if the source declares no entry point
func NewShader(key, source string) (Shader, error) {
	cleaned := stripComments(source)

	entries := parseEntryPoints(cleaned)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrNoEntryPoint)
	}

	var visibility wgpu.ShaderStage
	for _, ep := range entries {
		switch ep.Stage {
		case StageCompute:
			visibility |= wgpu.ShaderStageCompute
		case StageVertex:
			visibility |= wgpu.ShaderStageVertex
		case StageFragment:
			visibility |= wgpu.ShaderStageFragment
		}
	}

	s := &shader{
		key:         key,
		source:      source,
		entryPoints: entries,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(cleaned, visibility)
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoints() []EntryPoint {
	return s.entryPoints
}

func (s *shader) EntryPoint(name string) (EntryPoint, bool) {
	for _, ep := range s.entryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
