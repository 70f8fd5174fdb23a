package sim

import (
	"errors"
	"fmt"

	"github.com/byzantine-generals/go-om/om"
	"github.com/byzantine-generals/go-om/sim/fault"
)

const (
	defaultParticipantCount = 4
	defaultRelayDepth       = 1
)

// Option represents a configurable simulation parameter.
type Option func(*options) error

type options struct {
	participantCount int
	relayDepth       int
	source           om.ID
	policy           om.FaultPolicy
	traceLevel       int
	tracer           om.Tracer
}

func newOptions(o ...Option) (*options, error) {
	opts := options{
		participantCount: defaultParticipantCount,
		relayDepth:       defaultRelayDepth,
	}
	for _, apply := range o {
		if err := apply(&opts); err != nil {
			return nil, err
		}
	}
	if opts.policy == nil {
		policy, err := fault.NewPolicy()
		if err != nil {
			return nil, err
		}
		opts.policy = policy
	}
	return &opts, nil
}

// WithParticipantCount sets the number of participants taking part in
// the agreement. Defaults to 4 if unspecified.
func WithParticipantCount(count int) Option {
	return func(o *options) error {
		if count < 1 {
			return fmt.Errorf("participant count must be at least one; got: %d", count)
		}
		o.participantCount = count
		return nil
	}
}

// WithRounds sets the relay depth m: how many rounds of relaying
// follow the source's own broadcast, which is also the maximum number
// of faulty participants the run is sized to tolerate. The driver runs
// m+1 send rounds in total. Defaults to 1 if unspecified.
func WithRounds(m int) Option {
	return func(o *options) error {
		if m < 0 {
			return fmt.Errorf("rounds cannot be negative; got: %d", m)
		}
		o.relayDepth = m
		return nil
	}
}

// WithSource sets the identifier of the source participant. Defaults
// to 0 if unspecified.
func WithSource(id om.ID) Option {
	return func(o *options) error {
		o.source = id
		return nil
	}
}

// WithFaultPolicy sets the fault policy shared by every participant.
// Defaults to a policy with no faults and a source input of One if
// unspecified.
func WithFaultPolicy(policy om.FaultPolicy) Option {
	return func(o *options) error {
		if policy == nil {
			return errors.New("fault policy cannot be nil")
		}
		o.policy = policy
		return nil
	}
}

// WithTraceLevel sets the verbosity of console traces of network
// activity. Defaults to TraceNone if unspecified.
func WithTraceLevel(level int) Option {
	return func(o *options) error {
		if level < TraceNone || level > TraceAll {
			return fmt.Errorf("trace level must be between %d and %d; got: %d", TraceNone, TraceAll, level)
		}
		o.traceLevel = level
		return nil
	}
}

// WithTracer overrides where participants send their logic traces.
// Defaults to the module's debug logger, or to the console trace
// stream once the trace level reaches TraceLogic.
func WithTracer(t om.Tracer) Option {
	return func(o *options) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		o.tracer = t
		return nil
	}
}
