package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// entryPointRegex matches a run of attributes directly in front of a function declaration and captures
	// the attribute run and the function name. Attributes may appear in any order, so
	// "@compute @workgroup_size(8, 8)" and "@workgroup_size(8, 8) @compute" both match.
	entryPointRegex = regexp.MustCompile(`((?:@\w+(?:\([^)]*\))?\s*)+)\bfn\s+(\w+)`)

	// stageAttrRegex captures the pipeline stage attribute inside an attribute run
	stageAttrRegex = regexp.MustCompile(`@(compute|vertex|fragment)\b`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(1) var<storage, read_write> output: array<u32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// stageNames maps a WGSL stage attribute to its Stage
var stageNames = map[string]Stage{
	"compute":  StageCompute,
	"vertex":   StageVertex,
	"fragment": StageFragment,
}

// parseEntryPoints extracts every entry point declared in the WGSL source, in source order.
// Compute entries carry their @workgroup_size; omitted dimensions default to 1 and a compute
// entry without the attribute gets [1, 1, 1]. Render entries carry [0, 0, 0].
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []EntryPoint: all entry points found in the source
func parseEntryPoints(source string) []EntryPoint {
	matches := entryPointRegex.FindAllStringSubmatch(source, -1)
	entries := make([]EntryPoint, 0, len(matches))

	for _, match := range matches {
		attrs, name := match[1], match[2]
		stageMatch := stageAttrRegex.FindStringSubmatch(attrs)
		if stageMatch == nil {
			continue
		}

		ep := EntryPoint{
			Name:  name,
			Stage: stageNames[stageMatch[1]],
		}
		if ep.Stage == StageCompute {
			ep.WorkgroupSize = parseWorkgroupSize(attrs)
		}
		entries = append(entries, ep)
	}

	return entries
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions from an attribute run.
// Omitted dimensions default to 1. Returns [1, 1, 1] if no @workgroup_size attribute is found.
//
// Parameters:
//   - attrs: the attribute text in front of a compute entry point
//
// Returns:
//   - [3]uint32: the workgroup size as [x, y, z]
func parseWorkgroupSize(attrs string) [3]uint32 {
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(attrs)
	if match == nil {
		return result
	}

	for i := range 3 {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}

	return result
}

// parseBindGroupLayouts extracts all @group(N) @binding(M) resource declarations from WGSL
// source and returns them as wgpu.BindGroupLayoutDescriptor values grouped by group index.
// Each descriptor's entries are sorted by binding index. The provided visibility flag is
// applied to all entries.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)

	structSizes := computeStructSizes(parseStructBlocks(source))

	matches := bindGroupDeclRegex.FindAllStringSubmatch(source, -1)
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		varName := strings.TrimSpace(match[4])
		typeName := strings.TrimSpace(match[5])

		entry := classifyResource(uint32(binding), visibility, addressSpace)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
			}
		}

		groups[group] = append(groups[group], entry)

		if varNames[group] == nil {
			varNames[group] = make(map[int]string)
		}
		varNames[group][binding] = varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{
			Entries: entries,
		}
	}

	return result, varNames
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		fields = append(fields, parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			isBuiltin: builtinRegex.MatchString(line),
		})
	}

	return fields
}
