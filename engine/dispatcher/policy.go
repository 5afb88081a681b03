package dispatcher

import (
	"errors"
	"log/slog"

	"github.com/Carmen-Shannon/chaos-go/common"
)

// Policy decides what happens to device and driver failures on the per-frame paths.
// Every failure is logged. In production it is then swallowed so the next frame can try again; in debug mode
// errors are returned and recovered panics are re-raised.
type Policy struct {
	debug bool
}

// NewPolicy creates a Policy. Debug mode defaults to on when built with the chaosdebug tag.
//
// Parameters:
//   - options: functional options to apply
//
// Returns:
//   - *Policy: the new policy
func NewPolicy(options ...PolicyBuilderOption) *Policy {
	p := &Policy{debug: debugBuild}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Debug reports whether failures propagate.
func (p *Policy) Debug() bool {
	return p.debug
}

// Handle logs err and returns it in debug mode, or nil in production. A nil err is returned as is.
// A PanicError is re-panicked in debug mode.
//
// Parameters:
//   - op: the failing operation, used as the log message context
//   - err: the failure
//
// Returns:
//   - error: err in debug mode, otherwise nil
func (p *Policy) Handle(op string, err error) error {
	if err == nil {
		return nil
	}
	common.Logger().Error("render failure",
		slog.String("op", op),
		slog.String("error", err.Error()),
		slog.Bool("debug", p.debug),
	)
	if !p.debug {
		return nil
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		panic(pe.Value)
	}
	return err
}

// Guard runs fn and routes its error or panic through Handle.
//
// Parameters:
//   - op: the operation name
//   - fn: the work to run
//
// Returns:
//   - error: the result of Handle
func (p *Policy) Guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = p.Handle(op, &PanicError{Op: op, Value: r})
		}
	}()
	return p.Handle(op, fn())
}

// PolicyBuilderOption is a functional option for configuring a Policy.
type PolicyBuilderOption func(p *Policy)

// WithDebug overrides the build-tag default for debug mode.
//
// Parameters:
//   - debug: true to propagate failures
//
// Returns:
//   - PolicyBuilderOption: option function to apply
func WithDebug(debug bool) PolicyBuilderOption {
	return func(p *Policy) {
		p.debug = debug
	}
}
