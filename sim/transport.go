package sim

import (
	"context"
	"fmt"

	"github.com/byzantine-generals/go-om/om"
)

// Trace levels for console traces of network activity, in increasing
// verbosity.
const (
	TraceNone = iota
	TraceSent
	TraceRecvd
	TraceLogic
	TraceAll
)

var _ om.MessageSink = (*transport)(nil)

// transport carries one round's messages. Sends queue; nothing is
// delivered until the driver flushes at the round barrier, so a
// round's sends always read records settled in earlier rounds no
// matter how the sends interleave.
type transport struct {
	participants map[om.ID]*om.Participant
	queue        []messageInFlight
	round        int
	traceLevel   int
}

type messageInFlight struct {
	from, to om.ID
	path     om.Path
	value    om.Value
}

func newTransport(traceLevel int) *transport {
	return &transport{
		participants: make(map[om.ID]*om.Participant),
		traceLevel:   traceLevel,
	}
}

func (t *transport) addParticipant(p *om.Participant) {
	if _, ok := t.participants[p.ID()]; ok {
		panic("duplicate participant ID")
	}
	t.participants[p.ID()] = p
}

func (t *transport) beginRound(round int) {
	t.round = round
}

func (t *transport) Send(from, to om.ID, path om.Path, value om.Value) error {
	if _, ok := t.participants[to]; !ok {
		return fmt.Errorf("no participant %d to deliver to", to)
	}
	t.log(TraceSent, "P%d ↗ P%d: {%s, %s}", from, to, value, path)
	t.queue = append(t.queue, messageInFlight{from: from, to: to, path: path, value: value})
	metrics.messagesSent.Add(context.TODO(), 1)
	return nil
}

// flush delivers every queued message in send order and empties the
// queue.
func (t *transport) flush() error {
	for _, m := range t.queue {
		t.log(TraceRecvd, "P%d ← P%d: {%s, %s}", m.to, m.from, m.value, m.path)
		if err := t.participants[m.to].Receive(m.path, m.value); err != nil {
			return fmt.Errorf("delivering {%s, %s} from %d to %d: %w", m.value, m.path, m.from, m.to, err)
		}
	}
	metrics.recordsDelivered.Add(context.TODO(), int64(len(t.queue)))
	t.queue = t.queue[:0]
	return nil
}

// pending returns the number of messages queued for the barrier.
func (t *transport) pending() int {
	return len(t.queue)
}

func (t *transport) log(level int, format string, args ...any) {
	if level <= t.traceLevel {
		fmt.Printf("net [round %d]: ", t.round)
		fmt.Printf(format, args...)
		fmt.Printf("\n")
	}
}
