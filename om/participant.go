package om

import "fmt"

// Participant is one process of the agreement. It records the values
// delivered to it round by round, relays them when the driver asks,
// and decides once every round has run.
//
// The source participant seeds its own input at the root path during
// construction and decides on that input directly. Everyone else
// decides by reducing their record tree bottom-up under the majority
// rule.
//
// Methods on a Participant are not safe for concurrent use. Distinct
// participants share only the immutable Tree and the FaultPolicy and
// may be driven concurrently with each other.
type Participant struct {
	id     ID
	tree   *Tree
	policy FaultPolicy
	tracer Tracer

	records map[PathKey]Record
}

// NewParticipant constructs a participant with the given identifier,
// relay topology and fault policy. The source's input is recorded at
// the root path before the first round is sent.
func NewParticipant(id ID, tree *Tree, policy FaultPolicy, o ...Option) (*Participant, error) {
	opts, err := newOptions(o...)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, fmt.Errorf("tree cannot be nil")
	}
	if policy == nil {
		return nil, fmt.Errorf("fault policy cannot be nil")
	}
	if uint64(id) >= uint64(tree.Participants()) {
		return nil, fmt.Errorf("participant %d out of range for %d participants", id, tree.Participants())
	}
	p := &Participant{
		id:      id,
		tree:    tree,
		policy:  policy,
		tracer:  opts.tracer,
		records: make(map[PathKey]Record),
	}
	if id == tree.Source() {
		input := policy.SourceValue()
		if !input.Valid() {
			return nil, fmt.Errorf("source value %d from policy: %w", uint8(input), ErrInvalidValue)
		}
		p.records[RootPath().Key()] = Record{Received: input}
		p.trace("P%d seeded source input %s", p.id, input)
	}
	return p, nil
}

// ID returns the participant's identifier.
func (p *Participant) ID() ID { return p.id }

// IsSource reports whether this participant is the source.
func (p *Participant) IsSource() bool { return p.id == p.tree.Source() }

// IsFaulty reports whether the fault policy marks this participant
// faulty.
func (p *Participant) IsFaulty() bool { return p.policy.IsFaulty(p.id) }

// SendRound emits this participant's messages for the given round into
// sink. For every path it holds in the round, it relays the value it
// recorded for the path's parent to every participant except the
// source, itself included. The self-addressed copy is what later feeds
// this participant's own leaf records.
//
// The fault policy sees every message before it leaves and may replace
// its value; a policy value outside the four defined states fails the
// round with ErrInvalidValue.
func (p *Participant) SendRound(round int, sink MessageSink) error {
	if round < 0 || round > p.tree.Depth() {
		return fmt.Errorf("%w: round %d of depth %d", ErrInvalidRound, round, p.tree.Depth())
	}
	if sink == nil {
		return fmt.Errorf("message sink cannot be nil")
	}
	for _, path := range p.tree.PathsAt(round, p.id) {
		relayed := p.records[path.Parent().Key()].Received
		p.trace("P%d relaying %s along %s (parent %q)", p.id, relayed, path, path.Parent().Key())
		for to := ID(0); to < ID(p.tree.Participants()); to++ {
			if to == p.tree.Source() {
				continue
			}
			value := p.policy.RelayValue(relayed, p.id, to, path)
			if !value.Valid() {
				return fmt.Errorf("relay value %d from policy for path %q: %w", uint8(value), path.Key(), ErrInvalidValue)
			}
			if err := sink.Send(p.id, to, path, value); err != nil {
				return fmt.Errorf("sending %s to %d for path %q: %w", value, to, path.Key(), err)
			}
		}
	}
	return nil
}

// Receive records the value delivered for path, overwriting any record
// already keyed by it. The reduced output of an overwritten record is
// discarded along with it.
func (p *Participant) Receive(path Path, value Value) error {
	if !value.Valid() {
		return fmt.Errorf("received value %d for path %q: %w", uint8(value), path.Key(), ErrInvalidValue)
	}
	if !p.tree.Contains(path) {
		return fmt.Errorf("received value for path %q: %w", path.Key(), ErrInvalidPath)
	}
	p.records[path.Key()] = Record{Received: value}
	p.trace("P%d received {%s, %s}", p.id, value, path)
	return nil
}

// Decide reduces the participant's records to its decision.
//
// The source ignores its record tree and returns its own input. Every
// other participant first adopts its leaf records as they were
// received, then reduces rank by rank toward the front of the tree,
// replacing each record's output with the majority over its children's
// outputs. The output reduced at the decision path is the decision.
//
// Every path of the tree must have been delivered before Decide runs;
// a missing record fails with ErrRecordNotFound rather than defaulting.
// Decide is idempotent: reducing the same records again yields the
// same decision.
func (p *Participant) Decide() (Value, error) {
	def := p.policy.DefaultValue()
	if !def.Valid() {
		return Unset, fmt.Errorf("default value %d from policy: %w", uint8(def), ErrInvalidValue)
	}

	if p.IsSource() {
		rec, ok := p.records[RootPath().Key()]
		if !ok {
			return Unset, fmt.Errorf("no source input at root path: %w", ErrRecordNotFound)
		}
		p.trace("P%d decided %s as source", p.id, rec.Received)
		return rec.Received, nil
	}

	depth := p.tree.Depth()
	for _, path := range p.tree.RoundPaths(depth) {
		rec, ok := p.records[path.Key()]
		if !ok {
			return Unset, fmt.Errorf("no record for leaf path %q: %w", path.Key(), ErrRecordNotFound)
		}
		rec.Output = rec.Received
		p.records[path.Key()] = rec
	}
	for round := depth - 1; round >= 0; round-- {
		for _, path := range p.tree.RoundPaths(round) {
			rec, ok := p.records[path.Key()]
			if !ok {
				return Unset, fmt.Errorf("no record for path %q: %w", path.Key(), ErrRecordNotFound)
			}
			children := p.tree.Children(path)
			outputs := make([]Value, len(children))
			for i, child := range children {
				outputs[i] = p.records[child.Key()].Output
			}
			rec.Output = majority(outputs, def)
			p.records[path.Key()] = rec
		}
	}

	decision := p.records[p.tree.DecisionPath().Key()].Output
	p.trace("P%d decided %s", p.id, decision)
	return decision, nil
}

// Record returns a copy of the record keyed by path and whether one
// exists.
func (p *Participant) Record(path Path) (Record, bool) {
	rec, ok := p.records[path.Key()]
	return rec, ok
}

// Traverse walks the participant's record tree in post-order, children
// in ascending identifier order, calling fn for every path from the
// decision path down. Paths with no record yield a zero Record rather
// than an error, so a partially driven participant can still be
// inspected. Traversal stops at the first error fn returns.
func (p *Participant) Traverse(fn func(Path, Record) error) error {
	var walk func(Path) error
	walk = func(path Path) error {
		for _, child := range p.tree.Children(path) {
			if err := walk(child); err != nil {
				return err
			}
		}
		return fn(path, p.records[path.Key()])
	}
	return walk(p.tree.DecisionPath())
}

func (p *Participant) trace(format string, args ...any) {
	if p.tracer != nil {
		p.tracer.Log(format, args...)
	}
}
