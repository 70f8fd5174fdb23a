package om

import "errors"

// Option represents a configurable participant parameter.
type Option func(*options) error

type options struct {
	// tracer traces logic logs for debugging and simulation purposes.
	tracer Tracer
}

func newOptions(o ...Option) (*options, error) {
	var opts options
	for _, apply := range o {
		if err := apply(&opts); err != nil {
			return nil, err
		}
	}
	return &opts, nil
}

// WithTracer sets the Tracer that captures the participant's logical
// state changes, such as record deliveries and reduction steps.
// Defaults to no tracing if unspecified.
func WithTracer(t Tracer) Option {
	return func(o *options) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		o.tracer = t
		return nil
	}
}
