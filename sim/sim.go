// Package sim drives complete runs of the oral-messages agreement: it
// builds the relay topology once, constructs one participant per
// identifier, runs the synchronous round schedule and collects every
// participant's decision.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/byzantine-generals/go-om/internal/measurements"
	"github.com/byzantine-generals/go-om/om"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Decision is the outcome of one participant's run.
type Decision struct {
	Participant om.ID
	Source      bool
	Faulty      bool
	Value       om.Value
}

// Simulation owns the participants of one agreement and the transport
// between them. Construct with NewSimulation, drive with Run, then
// read the outcome with Decisions.
type Simulation struct {
	tree         *om.Tree
	policy       om.FaultPolicy
	participants []*om.Participant
	transport    *transport
	decisions    []Decision
}

// logicTracer forwards participant logic traces to the transport's
// console trace stream.
type logicTracer struct {
	transport *transport
}

func (l logicTracer) Log(format string, args ...any) {
	l.transport.log(TraceLogic, format, args...)
}

// NewSimulation constructs a simulation from the given options,
// failing fast on any configuration it cannot honor.
func NewSimulation(o ...Option) (*Simulation, error) {
	opts, err := newOptions(o...)
	if err != nil {
		return nil, err
	}
	tree, err := om.NewTree(opts.participantCount, opts.relayDepth, opts.source)
	if err != nil {
		return nil, err
	}

	transport := newTransport(opts.traceLevel)
	tracer := opts.tracer
	if tracer == nil {
		if opts.traceLevel >= TraceLogic {
			tracer = logicTracer{transport: transport}
		} else {
			tracer = newParticipantTracer()
		}
	}

	participants := make([]*om.Participant, opts.participantCount)
	for id := om.ID(0); id < om.ID(opts.participantCount); id++ {
		participant, err := om.NewParticipant(id, tree, opts.policy, om.WithTracer(tracer))
		if err != nil {
			return nil, fmt.Errorf("constructing participant %d: %w", id, err)
		}
		participants[id] = participant
		transport.addParticipant(participant)
	}
	return &Simulation{
		tree:         tree,
		policy:       opts.policy,
		participants: participants,
		transport:    transport,
	}, nil
}

// Tree returns the relay topology shared by all participants.
func (s *Simulation) Tree() *om.Tree { return s.tree }

// Participant returns the participant with the given identifier, or
// nil if the identifier is out of range.
func (s *Simulation) Participant(id om.ID) *om.Participant {
	if uint64(id) >= uint64(len(s.participants)) {
		return nil
	}
	return s.participants[id]
}

// Run drives all rounds to their barriers and then has every
// participant decide. Each round queues every participant's sends
// before anything is delivered; round r+1 does not start until round
// r's deliveries have all landed.
//
// Decisions are reached concurrently once the rounds are over, since
// each participant reduces only its own records. All decision failures
// are collected, not just the first.
func (s *Simulation) Run(ctx context.Context) error {
	defer func(start time.Time) {
		metrics.runTime.Record(ctx, time.Since(start).Milliseconds())
	}(time.Now())

	log.Infow("running agreement",
		"participants", s.tree.Participants(),
		"rounds", s.tree.Depth()+1,
		"source", s.tree.Source(),
		"paths", s.tree.PathCount())

	for round := 0; round <= s.tree.Depth(); round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.transport.beginRound(round)
		for _, participant := range s.participants {
			if err := participant.SendRound(round, s.transport); err != nil {
				return fmt.Errorf("participant %d sending round %d: %w", participant.ID(), round, err)
			}
		}
		queued := s.transport.pending()
		if err := s.transport.flush(); err != nil {
			return fmt.Errorf("delivering round %d: %w", round, err)
		}
		metrics.roundsCompleted.Add(ctx, 1)
		log.Debugw("round complete", "round", round, "delivered", queued)
	}

	decisions := make([]Decision, len(s.participants))
	errs := make([]error, len(s.participants))
	var eg errgroup.Group
	for i, participant := range s.participants {
		i, participant := i, participant
		eg.Go(func() error {
			value, err := participant.Decide()
			metrics.decisions.Add(ctx, 1, metric.WithAttributes(
				measurements.Status(ctx, err), attrValue[value]))
			if err != nil {
				errs[i] = fmt.Errorf("participant %d deciding: %w", participant.ID(), err)
				return errs[i]
			}
			decisions[i] = Decision{
				Participant: participant.ID(),
				Source:      participant.IsSource(),
				Faulty:      participant.IsFaulty(),
				Value:       value,
			}
			return nil
		})
	}
	// Every goroutine records its own slot; the combined error carries
	// all failures, not just the first one Wait would return.
	_ = eg.Wait()
	if err := multierr.Combine(errs...); err != nil {
		return err
	}
	s.decisions = decisions
	log.Infow("agreement complete", "decisions", len(decisions))
	return nil
}

// Decisions returns every participant's decision in identifier order,
// or nil if Run has not completed successfully. Callers must not
// modify the result.
func (s *Simulation) Decisions() []Decision {
	return s.decisions
}
