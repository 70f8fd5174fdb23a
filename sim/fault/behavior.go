package fault

import "github.com/byzantine-generals/go-om/om"

// Behavior rewrites the value a faulty participant relays. It sees
// the value an honest relayer would have sent, the relayer itself, the
// destination, and the path the value travels under.
type Behavior interface {
	Relay(value om.Value, relayer, to om.ID, path om.Path) om.Value
}

var (
	_ Behavior = Constant(om.One)
	_ Behavior = Flip{}
	_ Behavior = TwoFaced{}
	_ Behavior = Silent{}
)

// Constant relays its fixed value no matter what was received. A
// relayer that always claims One in the face of an order of Zero is
// the classic lying lieutenant.
type Constant om.Value

func (c Constant) Relay(om.Value, om.ID, om.ID, om.Path) om.Value {
	return om.Value(c)
}

// Flip inverts every order it relays and passes non-votes through
// unchanged.
type Flip struct{}

func (Flip) Relay(value om.Value, _, _ om.ID, _ om.Path) om.Value {
	switch value {
	case om.Zero:
		return om.One
	case om.One:
		return om.Zero
	default:
		return value
	}
}

// TwoFaced tells even-numbered destinations one thing and odd-numbered
// destinations another, regardless of what was received. Assigned to
// the source it models the treacherous general splitting the camp.
type TwoFaced struct {
	Even om.Value
	Odd  om.Value
}

func (t TwoFaced) Relay(_ om.Value, _, to om.ID, _ om.Path) om.Value {
	if to%2 == 0 {
		return t.Even
	}
	return t.Odd
}

// Silent delivers records with no vote in them: every relayed value is
// Unset. Receivers treat those records as present but weightless, the
// closest the protocol comes to a crashed participant.
type Silent struct{}

func (Silent) Relay(om.Value, om.ID, om.ID, om.Path) om.Value {
	return om.Unset
}
