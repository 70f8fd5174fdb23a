package sim

import (
	"github.com/byzantine-generals/go-om/internal/measurements"
	"github.com/byzantine-generals/go-om/om"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const attrKeyValue = "value"

var (
	meter = otel.Meter("omsim")

	attrValueUnset   = attribute.String(attrKeyValue, om.Unset.String())
	attrValueZero    = attribute.String(attrKeyValue, om.Zero.String())
	attrValueOne     = attribute.String(attrKeyValue, om.One.String())
	attrValueUnknown = attribute.String(attrKeyValue, om.Unknown.String())
	attrValue        = map[om.Value]attribute.KeyValue{
		om.Unset:   attrValueUnset,
		om.Zero:    attrValueZero,
		om.One:     attrValueOne,
		om.Unknown: attrValueUnknown,
	}

	metrics = struct {
		messagesSent     metric.Int64Counter
		recordsDelivered metric.Int64Counter
		roundsCompleted  metric.Int64Counter
		decisions        metric.Int64Counter
		runTime          metric.Int64Histogram
	}{
		messagesSent: measurements.Must(meter.Int64Counter("omsim_messages_sent",
			metric.WithDescription("Number of messages handed to the transport for delivery."))),
		recordsDelivered: measurements.Must(meter.Int64Counter("omsim_records_delivered",
			metric.WithDescription("Number of records delivered to participants at round barriers."))),
		roundsCompleted: measurements.Must(meter.Int64Counter("omsim_rounds_completed",
			metric.WithDescription("Number of send rounds driven to their barrier."))),
		decisions: measurements.Must(meter.Int64Counter("omsim_decisions",
			metric.WithDescription("Number of participant decisions reached, by status and value."))),
		runTime: measurements.Must(meter.Int64Histogram("omsim_run_time_ms",
			metric.WithDescription("Histogram of simulation run time in milliseconds."),
			metric.WithExplicitBucketBoundaries(1.0, 2.0, 5.0, 10.0, 20.0, 50.0, 100.0, 200.0, 500.0, 1000.0),
			metric.WithUnit("ms"))),
	}
)
