package om

// Record is one entry in a participant's store: the value delivered for
// a path, and the value the decision procedure reduced for it. Output
// stays Unset until Decide has run.
//
// Records are value types; participants hand out copies, never
// references into their stores.
type Record struct {
	Received Value
	Output   Value
}
