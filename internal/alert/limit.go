package alert

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLimit is returned when a limit patch carries unusable values.
var ErrInvalidLimit = errors.New("alert: invalid limit")

// Limit is the threshold configuration for one sensor series.
// A nil bound is unset.
type Limit struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Enabled bool     `json:"enabled" yaml:"enabled"`
}

// Clone returns a copy that shares no pointers with l.
func (l Limit) Clone() Limit {
	out := Limit{Enabled: l.Enabled}
	if l.Min != nil {
		v := *l.Min
		out.Min = &v
	}
	if l.Max != nil {
		v := *l.Max
		out.Max = &v
	}
	return out
}

// LimitPatch is a partial update to a Limit. Only set fields are applied.
// ClearMin and ClearMax unset a bound and take precedence over Min and Max.
type LimitPatch struct {
	Min      *float64
	Max      *float64
	ClearMin bool
	ClearMax bool
	Enabled  *bool
}

// Validate rejects non-finite bounds.
func (p LimitPatch) Validate() error {
	for name, v := range map[string]*float64{"min": p.Min, "max": p.Max} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidLimit, name)
		}
	}
	return nil
}

// Apply merges the patch into current and returns the result.
// A nil current seeds the merge with {Enabled: true}.
func (p LimitPatch) Apply(current *Limit) Limit {
	var out Limit
	if current == nil {
		out = Limit{Enabled: true}
	} else {
		out = current.Clone()
	}

	switch {
	case p.ClearMin:
		out.Min = nil
	case p.Min != nil:
		v := *p.Min
		out.Min = &v
	}

	switch {
	case p.ClearMax:
		out.Max = nil
	case p.Max != nil:
		v := *p.Max
		out.Max = &v
	}

	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	return out
}

// Float returns a pointer to v. Handy for building limits in literals.
func Float(v float64) *float64 {
	return &v
}
