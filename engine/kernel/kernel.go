// Package kernel binds the fractal compute entry points to their parameter layout.
//
// The compute backend is hidden behind Module and Function so the marshalling layer and everything
// above it can run without a GPU.
package kernel

import (
	"context"
	"errors"

	"github.com/Carmen-Shannon/chaos-go/engine/params"
	"github.com/Carmen-Shannon/chaos-go/engine/precision"
)

var (
	// ErrInvalidArgument is returned by setters given a value outside their domain.
	ErrInvalidArgument = errors.New("kernel: invalid argument")

	// ErrNotFound is returned when a module has no entry point with the requested name.
	ErrNotFound = errors.New("kernel: entry point not found")
)

// Exact, case-sensitive entry point names of the main render kernels.
const (
	EntryPointSingle = "fractalRenderMain"
	EntryPointDouble = "fractalRenderMainDouble"
)

// FoveationCenterRadius is the default render radius in pixels around the focus point.
const FoveationCenterRadius = 400

// EntryPoint returns the main render entry point name for a precision mode.
func EntryPoint(mode precision.Mode) string {
	if mode == precision.Double {
		return EntryPointDouble
	}
	return EntryPointSingle
}

// Output describes the surface a kernel writes into.
type Output struct {
	// Ptr is the opaque device address of the output buffer.
	Ptr uint64

	// Pitch is the row stride of the output buffer in bytes.
	Pitch int64
}

// LaunchOptions carries the per-dispatch settings that are not part of the parameter block.
type LaunchOptions struct {
	// Width and Height give the dispatch grid in output pixels.
	Width, Height int

	// ResetAccumulation discards samples accumulated by earlier quality passes before this dispatch.
	ResetAccumulation bool

	// Seed selects the sample pattern. Zero is the fixed centred pattern; accumulating passes use a
	// different seed each so their samples land between the earlier ones.
	Seed uint32
}

// Function is one compiled entry point.
type Function interface {
	// Name returns the entry point name the function was resolved with.
	Name() string

	// Launch runs the entry point once with the packed parameter block and blocks until it completes.
	//
	// Parameters:
	//   - ctx: cancels waiting for completion
	//   - block: the parameter block; every slot must be set
	//   - opts: dispatch grid and accumulation settings
	//
	// Returns:
	//   - error: error if packing, submission or completion fails
	Launch(ctx context.Context, block *params.Block, opts LaunchOptions) error
}

// Module is a compiled compute module exposing named entry points.
type Module interface {
	// Function resolves an entry point by exact name.
	//
	// Parameters:
	//   - name: the case-sensitive entry point name
	//
	// Returns:
	//   - Function: the resolved entry point
	//   - error: ErrNotFound if the module has no such entry point
	Function(name string) (Function, error)

	// Close releases the module's device resources.
	Close() error
}
