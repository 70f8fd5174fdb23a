package om_test

import (
	"errors"
	"testing"

	"github.com/byzantine-generals/go-om/om"
	"github.com/stretchr/testify/require"
)

// stubPolicy implements om.FaultPolicy with fixed inputs and an
// optional relay override.
type stubPolicy struct {
	source om.Value
	def    om.Value
	faulty map[om.ID]bool
	relay  func(value om.Value, relayer, to om.ID, path om.Path) om.Value
}

func (p *stubPolicy) SourceValue() om.Value { return p.source }

func (p *stubPolicy) RelayValue(value om.Value, relayer, to om.ID, path om.Path) om.Value {
	if p.relay != nil {
		return p.relay(value, relayer, to, path)
	}
	return value
}

func (p *stubPolicy) DefaultValue() om.Value { return p.def }

func (p *stubPolicy) IsFaulty(id om.ID) bool { return p.faulty[id] }

type sinkMessage struct {
	from, to om.ID
	path     om.Path
	value    om.Value
}

type collectingSink struct {
	messages []sinkMessage
}

func (s *collectingSink) Send(from, to om.ID, path om.Path, value om.Value) error {
	s.messages = append(s.messages, sinkMessage{from: from, to: to, path: path, value: value})
	return nil
}

type failingSink struct{ err error }

func (s *failingSink) Send(om.ID, om.ID, om.Path, om.Value) error { return s.err }

// newParticipants constructs one participant per identifier in the
// tree, all sharing the same policy.
func newParticipants(t *testing.T, tree *om.Tree, policy om.FaultPolicy) map[om.ID]*om.Participant {
	t.Helper()
	participants := make(map[om.ID]*om.Participant, tree.Participants())
	for id := om.ID(0); id < om.ID(tree.Participants()); id++ {
		participant, err := om.NewParticipant(id, tree, policy)
		require.NoError(t, err)
		participants[id] = participant
	}
	return participants
}

// driveRounds runs the synchronous round schedule: within each round
// every participant sends before anything is delivered.
func driveRounds(t *testing.T, tree *om.Tree, participants map[om.ID]*om.Participant, rounds int) {
	t.Helper()
	for round := 0; round < rounds; round++ {
		var sink collectingSink
		for id := om.ID(0); id < om.ID(tree.Participants()); id++ {
			require.NoError(t, participants[id].SendRound(round, &sink))
		}
		for _, m := range sink.messages {
			require.NoError(t, participants[m.to].Receive(m.path, m.value))
		}
	}
}

func TestHonestRunDecidesSourceValue(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	participants := newParticipants(t, tree, policy)
	driveRounds(t, tree, participants, tree.Depth()+1)

	for id, participant := range participants {
		decision, err := participant.Decide()
		require.NoError(t, err)
		require.Equal(t, om.One, decision, "participant %d", id)
	}
}

func TestTwoFacedSourceCannotSplitHonestMajority(t *testing.T) {
	// The source tells participant 1 One and everyone else Zero. With
	// four participants and one fault the relay depth of one is enough,
	// so the honest participants must still agree with each other.
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{
		source: om.Zero,
		def:    om.One,
		faulty: map[om.ID]bool{0: true},
		relay: func(value om.Value, relayer, to om.ID, path om.Path) om.Value {
			if relayer == 0 {
				if to == 1 {
					return om.One
				}
				return om.Zero
			}
			return value
		},
	}
	participants := newParticipants(t, tree, policy)
	driveRounds(t, tree, participants, tree.Depth()+1)

	for _, id := range []om.ID{1, 2, 3} {
		decision, err := participants[id].Decide()
		require.NoError(t, err)
		require.Equal(t, om.Zero, decision, "participant %d", id)
	}
}

func TestConstantLiarIsOutvoted(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{
		source: om.One,
		def:    om.Zero,
		faulty: map[om.ID]bool{2: true},
		relay: func(value om.Value, relayer, to om.ID, path om.Path) om.Value {
			if relayer == 2 {
				return om.Zero
			}
			return value
		},
	}
	participants := newParticipants(t, tree, policy)
	driveRounds(t, tree, participants, tree.Depth()+1)

	for _, id := range []om.ID{1, 3} {
		decision, err := participants[id].Decide()
		require.NoError(t, err)
		require.Equal(t, om.One, decision, "participant %d", id)
	}
	require.True(t, participants[2].IsFaulty())
	require.False(t, participants[1].IsFaulty())
}

func TestSelfDeliveryFeedsOwnLeaf(t *testing.T) {
	// A relayer addresses every participant but the source, itself
	// included. Its own echo is the leaf that carries its directly
	// received value into its reduction.
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	participants := newParticipants(t, tree, policy)
	driveRounds(t, tree, participants, tree.Depth()+1)

	rec, ok := participants[1].Record(om.Path{0, 1})
	require.True(t, ok)
	require.Equal(t, om.One, rec.Received)
}

func TestSourceDecidesOwnInput(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.Zero, def: om.One}
	participants := newParticipants(t, tree, policy)

	// The source needs no rounds at all to know its own mind.
	decision, err := participants[0].Decide()
	require.NoError(t, err)
	require.Equal(t, om.Zero, decision)
	require.True(t, participants[0].IsSource())
	require.False(t, participants[1].IsSource())
}

func TestDecideRequiresEveryRecord(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	participants := newParticipants(t, tree, policy)

	t.Run("before any round", func(t *testing.T) {
		_, err := participants[1].Decide()
		require.ErrorIs(t, err, om.ErrRecordNotFound)
	})
	t.Run("after only the first round", func(t *testing.T) {
		driveRounds(t, tree, participants, 1)
		_, err := participants[1].Decide()
		require.ErrorIs(t, err, om.ErrRecordNotFound)
	})
	t.Run("after all rounds", func(t *testing.T) {
		driveRounds(t, tree, participants, tree.Depth()+1)
		_, err := participants[1].Decide()
		require.NoError(t, err)
	})
}

func TestDecideIsIdempotent(t *testing.T) {
	tree, err := om.NewTree(5, 1, 2)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	participants := newParticipants(t, tree, policy)
	driveRounds(t, tree, participants, tree.Depth()+1)

	first, err := participants[0].Decide()
	require.NoError(t, err)
	second, err := participants[0].Decide()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestReceiveValidation(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	subject, err := om.NewParticipant(1, tree, policy)
	require.NoError(t, err)

	t.Run("rejects undefined value", func(t *testing.T) {
		err := subject.Receive(om.Path{0}, om.Value(42))
		require.ErrorIs(t, err, om.ErrInvalidValue)
	})
	t.Run("rejects path outside the tree", func(t *testing.T) {
		err := subject.Receive(om.Path{1, 2}, om.One)
		require.ErrorIs(t, err, om.ErrInvalidPath)
	})
	t.Run("rejects the root path", func(t *testing.T) {
		err := subject.Receive(om.RootPath(), om.One)
		require.ErrorIs(t, err, om.ErrInvalidPath)
	})
	t.Run("accepts any tree path", func(t *testing.T) {
		require.NoError(t, subject.Receive(om.Path{0}, om.One))
		require.NoError(t, subject.Receive(om.Path{0, 3}, om.Unknown))
	})
}

func TestReceiveOverwrites(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	participants := newParticipants(t, tree, policy)
	driveRounds(t, tree, participants, tree.Depth()+1)

	subject := participants[1]
	_, err = subject.Decide()
	require.NoError(t, err)
	rec, ok := subject.Record(om.Path{0, 2})
	require.True(t, ok)
	require.NotEqual(t, om.Unset, rec.Output)

	// A late delivery replaces the record outright, dropping the
	// previously reduced output with it.
	require.NoError(t, subject.Receive(om.Path{0, 2}, om.Zero))
	rec, ok = subject.Record(om.Path{0, 2})
	require.True(t, ok)
	require.Equal(t, om.Zero, rec.Received)
	require.Equal(t, om.Unset, rec.Output)
}

func TestSendRoundValidation(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}

	t.Run("round out of range", func(t *testing.T) {
		subject, err := om.NewParticipant(0, tree, policy)
		require.NoError(t, err)
		require.ErrorIs(t, subject.SendRound(-1, &collectingSink{}), om.ErrInvalidRound)
		require.ErrorIs(t, subject.SendRound(2, &collectingSink{}), om.ErrInvalidRound)
	})
	t.Run("nil sink", func(t *testing.T) {
		subject, err := om.NewParticipant(0, tree, policy)
		require.NoError(t, err)
		require.ErrorContains(t, subject.SendRound(0, nil), "sink")
	})
	t.Run("sink failure propagates", func(t *testing.T) {
		subject, err := om.NewParticipant(0, tree, policy)
		require.NoError(t, err)
		sinkErr := errors.New("queue full")
		require.ErrorIs(t, subject.SendRound(0, &failingSink{err: sinkErr}), sinkErr)
	})
	t.Run("policy value outside the domain", func(t *testing.T) {
		rogue := &stubPolicy{
			source: om.One,
			def:    om.Zero,
			relay: func(om.Value, om.ID, om.ID, om.Path) om.Value {
				return om.Value(9)
			},
		}
		subject, err := om.NewParticipant(0, tree, rogue)
		require.NoError(t, err)
		require.ErrorIs(t, subject.SendRound(0, &collectingSink{}), om.ErrInvalidValue)
	})
}

func TestSendRoundExcludesOnlyTheSource(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	participants := newParticipants(t, tree, policy)

	var round0 collectingSink
	require.NoError(t, participants[0].SendRound(0, &round0))
	require.Len(t, round0.messages, 3)
	for _, m := range round0.messages {
		require.NoError(t, participants[m.to].Receive(m.path, m.value))
	}

	var round1 collectingSink
	require.NoError(t, participants[1].SendRound(1, &round1))
	require.Len(t, round1.messages, 3)
	var destinations []om.ID
	for _, m := range round1.messages {
		require.Equal(t, om.ID(1), m.from)
		require.Equal(t, om.Path{0, 1}, m.path)
		destinations = append(destinations, m.to)
	}
	require.ElementsMatch(t, []om.ID{1, 2, 3}, destinations)
}

func TestNewParticipantValidation(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}

	t.Run("nil tree", func(t *testing.T) {
		_, err := om.NewParticipant(0, nil, policy)
		require.ErrorContains(t, err, "tree")
	})
	t.Run("nil policy", func(t *testing.T) {
		_, err := om.NewParticipant(0, tree, nil)
		require.ErrorContains(t, err, "policy")
	})
	t.Run("identifier out of range", func(t *testing.T) {
		_, err := om.NewParticipant(4, tree, policy)
		require.ErrorContains(t, err, "out of range")
	})
	t.Run("source input outside the domain", func(t *testing.T) {
		rogue := &stubPolicy{source: om.Value(7), def: om.Zero}
		_, err := om.NewParticipant(0, tree, rogue)
		require.ErrorIs(t, err, om.ErrInvalidValue)
		// Only the source consults SourceValue at construction.
		_, err = om.NewParticipant(1, tree, rogue)
		require.NoError(t, err)
	})
	t.Run("rejects nil tracer option", func(t *testing.T) {
		_, err := om.NewParticipant(0, tree, policy, om.WithTracer(nil))
		require.ErrorContains(t, err, "tracer")
	})
}

func TestSourceSeedsRootRecord(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.Zero, def: om.One}

	source, err := om.NewParticipant(0, tree, policy)
	require.NoError(t, err)
	rec, ok := source.Record(om.RootPath())
	require.True(t, ok)
	require.Equal(t, om.Zero, rec.Received)
	require.Equal(t, om.Unset, rec.Output)

	other, err := om.NewParticipant(1, tree, policy)
	require.NoError(t, err)
	_, ok = other.Record(om.RootPath())
	require.False(t, ok)
}

func TestTraverseVisitsPostOrder(t *testing.T) {
	tree, err := om.NewTree(4, 1, 0)
	require.NoError(t, err)
	policy := &stubPolicy{source: om.One, def: om.Zero}
	subject, err := om.NewParticipant(1, tree, policy)
	require.NoError(t, err)

	t.Run("empty store yields zero records", func(t *testing.T) {
		var visited []om.Path
		require.NoError(t, subject.Traverse(func(path om.Path, rec om.Record) error {
			require.Equal(t, om.Record{}, rec)
			visited = append(visited, path)
			return nil
		}))
		require.Equal(t, []om.Path{{0, 1}, {0, 2}, {0, 3}, {0}}, visited)
	})
	t.Run("traversal stops on error", func(t *testing.T) {
		boom := errors.New("boom")
		var count int
		err := subject.Traverse(func(om.Path, om.Record) error {
			count++
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.Equal(t, 1, count)
	})
}
