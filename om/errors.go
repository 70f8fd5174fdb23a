package om

import "errors"

var (
	// ErrInvalidValue signals a value outside the four defined states.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidPath signals a path that does not occur in the relay
	// tree: it repeats an identifier, starts somewhere other than the
	// source, or is longer than the tree is deep.
	ErrInvalidPath = errors.New("path not in relay tree")
	// ErrInvalidRound signals a round outside 0 through the tree depth.
	ErrInvalidRound = errors.New("round out of range")
	// ErrRecordNotFound signals that a record required by the decision
	// procedure was never delivered.
	ErrRecordNotFound = errors.New("record not found")
)
