package om

import (
	"strconv"
	"strings"
)

// ID identifies a participant. Identifiers are dense: a simulation of N
// participants uses 0 through N-1.
type ID uint64

// Path is the relay chain of a record: the participants an order has
// passed through, source first. The zero value is the root path, which
// keys the source's own input and nothing else.
type Path []ID

// PathKey is an unambiguous encoding of a Path for use as a map key.
type PathKey string

// RootPath returns the empty path.
func RootPath() Path { return Path{} }

// Extend returns a new path with id appended. The receiver is not
// modified and shares no storage with the result.
func (p Path) Extend(id ID) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = id
	return next
}

// Parent returns the path with the last hop removed.
// Invalid for the root path.
func (p Path) Parent() Path {
	return p[:len(p)-1]
}

// Last returns the most recent relayer on the path, i.e. the sender of
// the record this path keys.
// Invalid for the root path.
func (p Path) Last() ID {
	return p[len(p)-1]
}

// Len returns the number of hops on the path, which equals the round in
// which the record it keys is delivered.
func (p Path) Len() int { return len(p) }

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Contains reports whether id appears on the path.
func (p Path) Contains(id ID) bool {
	for _, hop := range p {
		if hop == id {
			return true
		}
	}
	return false
}

// Eq compares two paths hop by hop.
func (p Path) Eq(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Key returns an encoding of the path that is distinct for distinct
// paths regardless of how many digits the identifiers take.
func (p Path) Key() PathKey {
	var b strings.Builder
	for i, id := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return PathKey(b.String())
}

// String renders the path as concatenated identifiers, the way dumps
// and traces print it. Ambiguous above single-digit identifiers; use
// Key where identity matters.
func (p Path) String() string {
	var b strings.Builder
	for _, id := range p {
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}
