package kernel

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/params"
	"github.com/Carmen-Shannon/chaos-go/engine/plane"
	"github.com/Carmen-Shannon/chaos-go/engine/precision"
)

// DefaultSegment is the plane segment every adapter starts with.
var DefaultSegment = plane.NewSegment(-2, -1.5, 1, 1.5)

// Adapter owns the parameter block of one main render entry point and exposes a validated,
// typed setter and getter for each slot. Reals are encoded at the adapter's precision mode.
//
// Slot order is fixed: output pointer, output pitch, output size, plane segment, max iterations,
// supersampling level, adaptive supersampling, visualise adaptive supersampling, random samples,
// render radius, focus x, focus y.
type Adapter interface {
	// Mode returns the precision the adapter encodes reals with.
	Mode() precision.Mode

	// Block returns the parameter block to hand to the entry point.
	Block() *params.Block

	// SetOutput stores the output surface pointer and row pitch.
	SetOutput(out Output)
	Output() Output

	// SetOutputSize stores the output size in pixels.
	//
	// Returns:
	//   - error: ErrInvalidArgument if either dimension is not positive
	SetOutputSize(width, height int) error
	OutputSize() (int, int)

	// SetPlaneSegment validates and stores the plane segment.
	// Every bound must be finite and the right-top corner must be strictly greater than the left-bottom corner
	// on both axes. Nothing is stored if validation fails. A warning is logged when the stored segment reaches
	// the double precision limit, whatever the adapter's own mode.
	//
	// Parameters:
	//   - leftBottomX, leftBottomY, rightTopX, rightTopY: the segment bounds
	//
	// Returns:
	//   - error: ErrInvalidArgument on a non-finite or unordered bound
	SetPlaneSegment(leftBottomX, leftBottomY, rightTopX, rightTopY float64) error
	PlaneSegment() plane.Segment

	// SetMaxIterations stores the iteration cap.
	//
	// Returns:
	//   - error: ErrInvalidArgument if n < 1
	SetMaxIterations(n int) error
	MaxIterations() int

	// SetSuperSamplingLevel stores the number of samples per pixel.
	//
	// Returns:
	//   - error: ErrInvalidArgument if n < 1
	SetSuperSamplingLevel(n int) error
	SuperSamplingLevel() int

	SetAdaptiveSS(enabled bool)
	AdaptiveSS() bool
	SetVisualiseAdaptiveSS(enabled bool)
	VisualiseAdaptiveSS() bool
	SetRandomSamples(enabled bool)
	RandomSamples() bool

	// SetRenderRadius stores the radius in pixels around the focus point rendered at full quality.
	//
	// Returns:
	//   - error: ErrInvalidArgument if radius < 0
	SetRenderRadius(radius int) error
	RenderRadius() int

	// SetRenderRadiusToMax sets the render radius to the larger output dimension.
	SetRenderRadiusToMax()

	SetFocus(x, y int)
	Focus() (int, int)

	// SetFocusDefault moves the focus point to the output centre.
	SetFocusDefault()

	// IsAtFloatLimit reports whether the stored segment has exhausted single precision.
	IsAtFloatLimit() bool

	// IsAtDoubleLimit reports whether the stored segment has exhausted double precision.
	IsAtDoubleLimit() bool

	// Dirty reports whether an image-affecting parameter changed since the last ClearDirty.
	// Quality passes only reuse accumulated samples while the adapter is clean.
	Dirty() bool
	ClearDirty()
}

type adapter struct {
	mode    precision.Mode
	builder *params.Builder

	outPtr        params.Slot[uint64]
	outPitch      params.Slot[int64]
	outSize       params.Slot[[2]int32]
	segmentSlot   params.Slot[[4]float64]
	maxIterSlot   params.Slot[int32]
	superSampling params.Slot[int32]
	adaptiveSS    params.Slot[bool]
	visualiseSS   params.Slot[bool]
	randomSamples params.Slot[bool]
	renderRadius  params.Slot[int32]
	focusX        params.Slot[int32]
	focusY        params.Slot[int32]

	output        Output
	width, height int
	segment       plane.Segment
	maxIterations int
	ssLevel       int
	adaptive      bool
	visualise     bool
	random        bool
	radius        int
	fx, fy        int
	dirty         bool
}

var _ Adapter = &adapter{}

// NewAdapter creates an Adapter with every slot registered in the fixed order and written with its default.
// Defaults: max iterations 1, supersampling 1, adaptive supersampling on, visualisation off, random samples off,
// render radius FoveationCenterRadius, focus (0, 0), segment DefaultSegment, empty output.
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - Adapter: the new adapter
//   - error: ErrInvalidArgument if an option supplies an invalid value
func NewAdapter(options ...AdapterBuilderOption) (Adapter, error) {
	cfg := &adapterConfig{mode: precision.Single}
	for _, opt := range options {
		opt(cfg)
	}

	a := &adapter{
		mode:    cfg.mode,
		builder: params.NewBuilder(),
	}
	a.outPtr = params.Bind(a.builder, params.EncodeDevicePtr)
	a.outPitch = params.Bind(a.builder, params.EncodeInt64)
	a.outSize = params.Bind(a.builder, params.EncodeInt32Pair)
	a.segmentSlot = params.Bind(a.builder, cfg.mode.QuadEncoder())
	a.maxIterSlot = params.Bind(a.builder, params.EncodeInt32)
	a.superSampling = params.Bind(a.builder, params.EncodeInt32)
	a.adaptiveSS = params.Bind(a.builder, params.EncodeBool)
	a.visualiseSS = params.Bind(a.builder, params.EncodeBool)
	a.randomSamples = params.Bind(a.builder, params.EncodeBool)
	a.renderRadius = params.Bind(a.builder, params.EncodeInt32)
	a.focusX = params.Bind(a.builder, params.EncodeInt32)
	a.focusY = params.Bind(a.builder, params.EncodeInt32)

	a.SetOutput(Output{})
	a.outSize.Set([2]int32{0, 0})
	a.storeSegment(DefaultSegment)
	a.maxIterations = 1
	a.maxIterSlot.Set(1)
	a.ssLevel = 1
	a.superSampling.Set(1)
	a.SetAdaptiveSS(true)
	a.SetVisualiseAdaptiveSS(false)
	a.SetRandomSamples(false)
	a.radius = FoveationCenterRadius
	a.renderRadius.Set(FoveationCenterRadius)
	a.SetFocus(0, 0)

	if cfg.width != 0 || cfg.height != 0 {
		if err := a.SetOutputSize(cfg.width, cfg.height); err != nil {
			return nil, err
		}
	}
	if cfg.segment != nil {
		lbx, lby, rtx, rty := cfg.segment.Bounds()
		if err := a.SetPlaneSegment(lbx, lby, rtx, rty); err != nil {
			return nil, err
		}
	}
	if cfg.maxIterations != 0 {
		if err := a.SetMaxIterations(cfg.maxIterations); err != nil {
			return nil, err
		}
	}
	a.dirty = true

	return a, nil
}

func (a *adapter) Mode() precision.Mode {
	return a.mode
}

func (a *adapter) Block() *params.Block {
	return a.builder.Block()
}

func (a *adapter) SetOutput(out Output) {
	if out != a.output {
		a.dirty = true
	}
	a.output = out
	a.outPtr.Set(out.Ptr)
	a.outPitch.Set(out.Pitch)
}

func (a *adapter) Output() Output {
	return a.output
}

func (a *adapter) SetOutputSize(width, height int) error {
	if width <= 0 || height <= 0 || width > math.MaxInt32 || height > math.MaxInt32 {
		return fmt.Errorf("output size %dx%d must be positive: %w", width, height, ErrInvalidArgument)
	}
	if width != a.width || height != a.height {
		a.dirty = true
	}
	a.width, a.height = width, height
	a.outSize.Set([2]int32{int32(width), int32(height)})
	return nil
}

func (a *adapter) OutputSize() (int, int) {
	return a.width, a.height
}

func (a *adapter) SetPlaneSegment(leftBottomX, leftBottomY, rightTopX, rightTopY float64) error {
	bounds := []struct {
		name  string
		value float64
	}{
		{"left bottom x", leftBottomX},
		{"left bottom y", leftBottomY},
		{"right top x", rightTopX},
		{"right top y", rightTopY},
	}
	for _, b := range bounds {
		if math.IsNaN(b.value) || math.IsInf(b.value, 0) {
			return fmt.Errorf("segment %s must be finite, got %v: %w", b.name, b.value, ErrInvalidArgument)
		}
	}

	seg := plane.NewSegment(leftBottomX, leftBottomY, rightTopX, rightTopY)
	if !seg.Ordered() {
		return fmt.Errorf("segment %s has right top not above and right of left bottom: %w", seg, ErrInvalidArgument)
	}

	if seg != a.segment {
		a.dirty = true
	}
	a.storeSegment(seg)

	if a.IsAtDoubleLimit() {
		common.Logger().Warn("plane segment reached double precision limit",
			slog.String("segment", seg.String()),
			slog.Int("width", a.width),
			slog.Int("height", a.height),
			slog.String("mode", a.mode.String()),
		)
	}
	return nil
}

func (a *adapter) storeSegment(seg plane.Segment) {
	a.segment = seg
	lbx, lby, rtx, rty := seg.Bounds()
	a.segmentSlot.Set([4]float64{lbx, lby, rtx, rty})
}

func (a *adapter) PlaneSegment() plane.Segment {
	return a.segment
}

func (a *adapter) SetMaxIterations(n int) error {
	if n < 1 || n > math.MaxInt32 {
		return fmt.Errorf("max iterations must be a positive int32, got %d: %w", n, ErrInvalidArgument)
	}
	if n != a.maxIterations {
		a.dirty = true
	}
	a.maxIterations = n
	a.maxIterSlot.Set(int32(n))
	return nil
}

func (a *adapter) MaxIterations() int {
	return a.maxIterations
}

func (a *adapter) SetSuperSamplingLevel(n int) error {
	if n < 1 || n > math.MaxInt32 {
		return fmt.Errorf("supersampling level must be a positive int32, got %d: %w", n, ErrInvalidArgument)
	}
	a.ssLevel = n
	a.superSampling.Set(int32(n))
	return nil
}

func (a *adapter) SuperSamplingLevel() int {
	return a.ssLevel
}

func (a *adapter) SetAdaptiveSS(enabled bool) {
	a.adaptive = enabled
	a.adaptiveSS.Set(enabled)
}

func (a *adapter) AdaptiveSS() bool {
	return a.adaptive
}

func (a *adapter) SetVisualiseAdaptiveSS(enabled bool) {
	if enabled != a.visualise {
		a.dirty = true
	}
	a.visualise = enabled
	a.visualiseSS.Set(enabled)
}

func (a *adapter) VisualiseAdaptiveSS() bool {
	return a.visualise
}

func (a *adapter) SetRandomSamples(enabled bool) {
	a.random = enabled
	a.randomSamples.Set(enabled)
}

func (a *adapter) RandomSamples() bool {
	return a.random
}

func (a *adapter) SetRenderRadius(radius int) error {
	if radius < 0 || radius > math.MaxInt32 {
		return fmt.Errorf("render radius must be non-negative, got %d: %w", radius, ErrInvalidArgument)
	}
	a.radius = radius
	a.renderRadius.Set(int32(radius))
	return nil
}

func (a *adapter) RenderRadius() int {
	return a.radius
}

func (a *adapter) SetRenderRadiusToMax() {
	a.radius = max(a.width, a.height)
	a.renderRadius.Set(int32(a.radius))
}

func (a *adapter) SetFocus(x, y int) {
	a.fx, a.fy = x, y
	a.focusX.Set(int32(x))
	a.focusY.Set(int32(y))
}

func (a *adapter) Focus() (int, int) {
	return a.fx, a.fy
}

func (a *adapter) SetFocusDefault() {
	a.SetFocus(a.width/2, a.height/2)
}

func (a *adapter) IsAtFloatLimit() bool {
	return precision.IsAtLimit(a.width, a.height, a.segment.LeftBottom, a.segment.RightTop, precision.Single)
}

func (a *adapter) IsAtDoubleLimit() bool {
	return precision.IsAtLimit(a.width, a.height, a.segment.LeftBottom, a.segment.RightTop, precision.Double)
}

func (a *adapter) Dirty() bool {
	return a.dirty
}

func (a *adapter) ClearDirty() {
	a.dirty = false
}
