// Package measurements provides helpers shared by the module's
// OpenTelemetry instrumentation.
package measurements

import (
	"context"
	"errors"

	"github.com/byzantine-generals/go-om/om"
	"go.opentelemetry.io/otel/attribute"
)

var (
	AttrStatusSuccess  = attribute.String("status", "success")
	AttrStatusError    = attribute.String("status", "error-other")
	AttrStatusCanceled = attribute.String("status", "error-canceled")
	AttrStatusNotFound = attribute.String("status", "error-not-found")
)

// Must panics if err is non-nil, otherwise returns v.
func Must[V any](v V, err error) V {
	if err != nil {
		panic(err)
	}
	return v
}

// Status summarises the outcome of an operation as a metric attribute.
func Status(ctx context.Context, err error) attribute.KeyValue {
	switch {
	case err == nil:
		return AttrStatusSuccess
	case errors.Is(err, om.ErrRecordNotFound):
		return AttrStatusNotFound
	case errors.Is(ctx.Err(), context.Canceled):
		return AttrStatusCanceled
	default:
		return AttrStatusError
	}
}
