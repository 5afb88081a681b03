package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Extension is the file extension of kernel sources and includes.
const Extension = ".wgsl"

// ErrSourceNotFound is returned when a source or include file does not exist.
var ErrSourceNotFound = errors.New("shader: source not found")

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	fsys fs.FS

	// included tracks files already spliced into the current Process call.
	included map[string]bool

	// fractalName is the display name declared by the last processed source.
	fractalName string
}

// PreProcessor expands @chaos: annotations in WGSL sources read from a file system.
type PreProcessor interface {
	// Process reads the named source, splices its includes in place and returns valid WGSL.
	// Includes are resolved relative to the root of the file system and expanded recursively; a file
	// already spliced into this source is skipped, which also breaks include cycles.
	//
	// Parameters:
	//   - name: the source name without the .wgsl extension
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: ErrSourceNotFound for a missing file, or an annotation error
	Process(name string) (string, error)

	// FractalName returns the display name declared with @chaos:fractal by the last processed
	// source, or an empty string if it declared none.
	FractalName() string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor reading sources from fsys.
//
// Parameters:
//   - fsys: the file system holding the .wgsl sources, usually an embed.FS
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(fsys fs.FS) PreProcessor {
	return &preProcessor{fsys: fsys}
}

func (p *preProcessor) Process(name string) (string, error) {
	p.included = map[string]bool{}
	p.fractalName = ""

	var sb strings.Builder
	if err := p.expand(name, &sb, true); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (p *preProcessor) FractalName() string {
	return p.fractalName
}

func (p *preProcessor) expand(name string, sb *strings.Builder, root bool) error {
	if p.included[name] {
		return nil
	}
	p.included[name] = true

	data, err := fs.ReadFile(p.fsys, name+Extension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s%s: %w", name, Extension, ErrSourceNotFound)
		}
		return fmt.Errorf("read %s%s: %w", name, Extension, err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return fmt.Errorf("%s%s: %w", name, Extension, err)
		}
		if a == nil {
			sb.WriteString(line)
			sb.WriteByte('\n')
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			if err := p.expand(a.Arg, sb, false); err != nil {
				return fmt.Errorf("%s%s line %d: %w", name, Extension, a.Line, err)
			}
		case AnnotationTypeFractal:
			if root {
				p.fractalName = a.Arg
			}
		}
	}
	return nil
}
