package om

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Tree is the relay topology of one agreement: every path an order can
// travel in a run of depth+1 rounds, together with the parent/child
// relation the decision procedure reduces over.
//
// Paths of round r have r+1 hops and end with the participant that
// sends them in round r. Children of a path extend it by every
// identifier not already on it, so no chain ever revisits a
// participant. The single round-0 path is the source alone; its parent
// is the root path, which keys the source's own input and is not part
// of the tree.
//
// A Tree is built once, is immutable afterwards, and is shared by all
// participants of a simulation.
type Tree struct {
	participants int
	depth        int
	source       ID

	pathsByRound []map[ID][]Path
	children     map[PathKey][]Path
	rankByKey    map[PathKey]int
	pathCount    int
}

// buildFrame is one pending expansion in the tree builder. Each frame
// owns its used set outright; branching clones, never shares.
type buildFrame struct {
	path Path
	used *bitset.BitSet
	rank int
}

// NewTree constructs the relay topology for the given participant
// count, relay depth and source. It fails fast on parameters out of
// range; in particular depth must stay below the participant count,
// since a chain of depth+1 hops needs that many distinct participants.
func NewTree(participants, depth int, source ID) (*Tree, error) {
	switch {
	case participants < 1:
		return nil, fmt.Errorf("participant count must be at least one; got: %d", participants)
	case depth < 0:
		return nil, fmt.Errorf("relay depth cannot be negative; got: %d", depth)
	case depth >= participants:
		return nil, fmt.Errorf("relay depth must be less than participant count; got: %d of %d", depth, participants)
	case uint64(source) >= uint64(participants):
		return nil, fmt.Errorf("source must identify a participant below %d; got: %d", participants, source)
	}

	t := &Tree{
		participants: participants,
		depth:        depth,
		source:       source,
		pathsByRound: make([]map[ID][]Path, depth+1),
		children:     make(map[PathKey][]Path),
		rankByKey:    make(map[PathKey]int),
	}
	for round := range t.pathsByRound {
		t.pathsByRound[round] = make(map[ID][]Path)
	}

	rootUsed := bitset.New(uint(participants))
	rootUsed.Set(uint(source))
	stack := []buildFrame{{path: Path{source}, used: rootUsed, rank: 0}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		holder := frame.path.Last()
		t.pathsByRound[frame.rank][holder] = append(t.pathsByRound[frame.rank][holder], frame.path)
		t.rankByKey[frame.path.Key()] = frame.rank
		t.pathCount++
		if frame.rank == depth {
			continue
		}

		var extensions []Path
		for id := ID(0); id < ID(participants); id++ {
			if !frame.used.Test(uint(id)) {
				extensions = append(extensions, frame.path.Extend(id))
			}
		}
		t.children[frame.path.Key()] = extensions
		// Pushed in reverse so expansion pops in ascending identifier
		// order, keeping the recorded path order deterministic.
		for i := len(extensions) - 1; i >= 0; i-- {
			used := frame.used.Clone()
			used.Set(uint(extensions[i].Last()))
			stack = append(stack, buildFrame{path: extensions[i], used: used, rank: frame.rank + 1})
		}
	}
	return t, nil
}

// Participants returns the number of participants the tree spans.
func (t *Tree) Participants() int { return t.participants }

// Depth returns the relay depth: the number of rounds beyond the
// source's own broadcast, i.e. the maximum faults the run is sized to
// tolerate.
func (t *Tree) Depth() int { return t.depth }

// Source returns the identifier of the participant whose order the
// agreement is about.
func (t *Tree) Source() ID { return t.source }

// PathCount returns the total number of paths across all rounds.
func (t *Tree) PathCount() int { return t.pathCount }

// DecisionPath returns the single round-0 path, whose reduced output
// is a non-source participant's decision.
func (t *Tree) DecisionPath() Path { return Path{t.source} }

// PathsAt returns the paths participant holder relays in the given
// round, in the fixed order they were generated. The result is shared;
// callers must not modify it.
func (t *Tree) PathsAt(round int, holder ID) []Path {
	if round < 0 || round > t.depth {
		return nil
	}
	return t.pathsByRound[round][holder]
}

// RoundPaths returns every path of the given round, grouped by holder
// in ascending identifier order. The result is built fresh on each
// call.
func (t *Tree) RoundPaths(round int) []Path {
	if round < 0 || round > t.depth {
		return nil
	}
	var paths []Path
	for id := ID(0); id < ID(t.participants); id++ {
		paths = append(paths, t.pathsByRound[round][id]...)
	}
	return paths
}

// Children returns the extensions of p, in ascending order of the
// appended identifier. It returns nil for leaves and for paths not in
// the tree. The result is shared; callers must not modify it.
func (t *Tree) Children(p Path) []Path {
	return t.children[p.Key()]
}

// Contains reports whether p occurs in the tree. The root path does
// not: it keys the source's input, which is never relayed as such.
func (t *Tree) Contains(p Path) bool {
	_, ok := t.rankByKey[p.Key()]
	return ok
}

// Rank returns the round in which p is delivered, or an error
// wrapping ErrInvalidPath if p does not occur in the tree.
func (t *Tree) Rank(p Path) (int, error) {
	rank, ok := t.rankByKey[p.Key()]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPath, p.Key())
	}
	return rank, nil
}
