// annotations.go defines the annotation syntax of the kernel pre-processor. Annotations are
// single-line WGSL comments prefixed with @chaos: so that an unprocessed source is still valid WGSL.
package shader

import (
	"fmt"
	"path"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@chaos:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude splices another WGSL file into the source at the annotation site.
	// Each file is included at most once per processed source; later includes of the same file are dropped.
	//
	// Syntax: //@chaos:include <name>
	//
	// Example: //@chaos:include df64
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeFractal names the fractal a kernel source renders. It produces no WGSL output.
	//
	// Syntax: //@chaos:fractal <display name...>
	//
	// Example: //@chaos:fractal Burning Ship
	AnnotationTypeFractal AnnotationType = "fractal"
)

// Annotation is one parsed @chaos: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Arg is the include name or the fractal display name.
	Arg string

	// Line is the 1-based line number in the file the annotation was read from.
	Line int
}

// parseAnnotation attempts to parse a single line of WGSL source as an annotation.
// Returns nil with no error for lines that do not carry the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @chaos annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @chaos include annotation requires exactly one argument", lineNum)
		}
		if name := args[1]; name != path.Base(name) || name == "." || name == ".." {
			return nil, fmt.Errorf("line %d: include name %q must be a plain file name", lineNum, name)
		}
		return &Annotation{Type: AnnotationTypeInclude, Arg: args[1], Line: lineNum}, nil
	case AnnotationTypeFractal:
		if len(args) < 2 {
			return nil, fmt.Errorf("line %d: @chaos fractal annotation requires a name", lineNum)
		}
		return &Annotation{Type: AnnotationTypeFractal, Arg: strings.Join(args[1:], " "), Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @chaos annotation type %q", lineNum, args[0])
	}
}
