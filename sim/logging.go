package sim

import (
	"github.com/byzantine-generals/go-om/om"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("omsim")

// Tracer used by participants for logic traces, backed by a Zap logger.
type participantTracer logging.ZapEventLogger

// Log fulfills the om.Tracer interface.
func (h *participantTracer) Log(fmt string, args ...any) {
	(*logging.ZapEventLogger)(h).Debugf(fmt, args...)
}

var _ om.Tracer = (*participantTracer)(nil)

func newParticipantTracer() om.Tracer {
	return (*participantTracer)(logging.WithSkip(logging.Logger("omsim/participant"), 2))
}
