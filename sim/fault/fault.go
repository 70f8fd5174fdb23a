// Package fault provides composable fault policies for agreement
// simulations. A Policy marks chosen participants faulty and gives
// each one a Behavior that rewrites the values it relays; everyone
// else behaves honestly.
package fault

import (
	"errors"
	"fmt"
	"slices"

	"github.com/byzantine-generals/go-om/om"
)

var _ om.FaultPolicy = (*Policy)(nil)

// Policy implements om.FaultPolicy over a set of per-participant
// behaviors. It is immutable once constructed and safe for concurrent
// use.
type Policy struct {
	sourceValue  om.Value
	defaultValue om.Value
	behaviors    map[om.ID]Behavior
}

// PolicyOption represents a configurable policy parameter.
type PolicyOption func(*Policy) error

// NewPolicy constructs a policy that is honest everywhere except where
// a WithBehavior option says otherwise. The source input and tie-break
// default both start as One.
func NewPolicy(o ...PolicyOption) (*Policy, error) {
	policy := &Policy{
		sourceValue:  om.One,
		defaultValue: om.One,
		behaviors:    make(map[om.ID]Behavior),
	}
	for _, apply := range o {
		if err := apply(policy); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

// WithSourceValue sets the order the source holds as its own input.
// Defaults to One if unspecified.
func WithSourceValue(v om.Value) PolicyOption {
	return func(p *Policy) error {
		if !v.Valid() {
			return fmt.Errorf("source value %d: %w", uint8(v), om.ErrInvalidValue)
		}
		p.sourceValue = v
		return nil
	}
}

// WithDefaultValue sets the shared tie-break value. Defaults to One if
// unspecified.
func WithDefaultValue(v om.Value) PolicyOption {
	return func(p *Policy) error {
		if !v.Valid() {
			return fmt.Errorf("default value %d: %w", uint8(v), om.ErrInvalidValue)
		}
		p.defaultValue = v
		return nil
	}
}

// WithBehavior marks the given participant faulty with the given
// behavior. A participant can carry at most one behavior.
func WithBehavior(id om.ID, b Behavior) PolicyOption {
	return func(p *Policy) error {
		if b == nil {
			return errors.New("behavior cannot be nil")
		}
		if _, ok := p.behaviors[id]; ok {
			return fmt.Errorf("participant %d already has a behavior", id)
		}
		p.behaviors[id] = b
		return nil
	}
}

func (p *Policy) SourceValue() om.Value { return p.sourceValue }

func (p *Policy) RelayValue(value om.Value, relayer, to om.ID, path om.Path) om.Value {
	if b, ok := p.behaviors[relayer]; ok {
		return b.Relay(value, relayer, to, path)
	}
	return value
}

func (p *Policy) DefaultValue() om.Value { return p.defaultValue }

func (p *Policy) IsFaulty(id om.ID) bool {
	_, ok := p.behaviors[id]
	return ok
}

// Faulty returns the identifiers carrying a behavior, in ascending
// order.
func (p *Policy) Faulty() []om.ID {
	ids := make([]om.ID, 0, len(p.behaviors))
	for id := range p.behaviors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
