package quality

import "time"

// Tunables are the controller's empirically chosen constants.
type Tunables struct {
	// ShortestFrame is the frame budget while zooming or moving. Waiting gets twice this.
	ShortestFrame time.Duration

	// MaxFrame ends a refinement cycle once a level's budget would exceed it.
	MaxFrame time.Duration

	// BaselineSuperSampling is the ceiling restored when a refinement cycle ends.
	BaselineSuperSampling int

	// BackoffBase is the growth factor of the refinement budget per level.
	BackoffBase float64

	// MaxSuperSampling caps the ceiling. Reaching it ends a refinement cycle.
	MaxSuperSampling int

	// IdleGrace is how long input must be idle before zooming or moving becomes waiting.
	IdleGrace time.Duration
}

// DefaultTunables returns the stock constants.
func DefaultTunables() Tunables {
	return Tunables{
		ShortestFrame:         15 * time.Millisecond,
		MaxFrame:              1000 * time.Millisecond,
		BaselineSuperSampling: 10,
		BackoffBase:           2,
		MaxSuperSampling:      256,
		IdleGrace:             500 * time.Millisecond,
	}
}

// normalized replaces out-of-domain fields with their defaults.
func (t Tunables) normalized() Tunables {
	d := DefaultTunables()
	if t.ShortestFrame <= 0 {
		t.ShortestFrame = d.ShortestFrame
	}
	if t.MaxFrame <= 0 {
		t.MaxFrame = d.MaxFrame
	}
	if t.BaselineSuperSampling < 1 {
		t.BaselineSuperSampling = d.BaselineSuperSampling
	}
	if t.BackoffBase <= 1 {
		t.BackoffBase = d.BackoffBase
	}
	if t.MaxSuperSampling < 1 {
		t.MaxSuperSampling = d.MaxSuperSampling
	}
	if t.IdleGrace < 0 {
		t.IdleGrace = d.IdleGrace
	}
	return t
}
