// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"time"

	units "github.com/docker/go-units"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies this package to the OpenTelemetry SDK. The
// caller wires an actual exporter through otel.SetTracerProvider /
// otel.SetMeterProvider; hdbwire never links one in itself.
const instrumentationName = "github.com/hdbwire/hdbwire/internal/protocol"

const attrMessageType = attribute.Key("hdbwire.message_type")

// Dispatcher pairs a Writer/Reader with the OpenTelemetry span and metric
// instruments recorded around each request/reply pair (spec invariant:
// request and reply strictly alternate, one roundtrip at a time per
// session).
type Dispatcher struct {
	pw *Writer
	pr *Reader
	lg *Logger

	tracer     trace.Tracer
	roundtrips metric.Int64Counter
	bytesOut   metric.Int64Counter
	bytesIn    metric.Int64Counter
	latency    metric.Float64Histogram
}

// NewDispatcher wraps pw/pr. lg may be nil, in which case roundtrips are
// unlogged but still traced/measured.
func NewDispatcher(pw *Writer, pr *Reader, lg *Logger) *Dispatcher {
	meter := otel.Meter(instrumentationName)
	d := &Dispatcher{
		pw:     pw,
		pr:     pr,
		lg:     loggerOrDiscard(lg),
		tracer: otel.Tracer(instrumentationName),
	}
	d.roundtrips, _ = meter.Int64Counter("hdbwire.roundtrips",
		metric.WithDescription("request/reply roundtrips"))
	d.bytesOut, _ = meter.Int64Counter("hdbwire.bytes_written",
		metric.WithDescription("bytes written to the connection"), metric.WithUnit("By"))
	d.bytesIn, _ = meter.Int64Counter("hdbwire.bytes_read",
		metric.WithDescription("bytes read from the connection"), metric.WithUnit("By"))
	d.latency, _ = meter.Float64Histogram("hdbwire.roundtrip_latency",
		metric.WithDescription("roundtrip latency"), metric.WithUnit("ms"))
	return d
}

// roundtrip writes one request message and decodes its reply, recording a
// span and metrics around the pair. fn is the same per-part callback
// IterateParts takes; it may be nil for replies nobody inspects.
func (d *Dispatcher) roundtrip(ctx context.Context, sessionID int64, mt MessageType, commit bool, parts []outPart, fn func(ph *PartHeader)) error {
	ctx, span := d.tracer.Start(ctx, "hdbwire.roundtrip", trace.WithAttributes(attrMessageType.Int(int(mt))))
	defer span.End()

	written := int64(segmentHeaderSize + messageHeaderSize)
	for _, p := range parts {
		written += int64(partHeaderSize + p.size())
	}

	start := time.Now()
	err := d.pw.Write(sessionID, mt, commit, parts...)
	if err == nil {
		err = d.pr.IterateParts(fn)
	}
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(attrMessageType.Int(int(mt)))
	d.roundtrips.Add(ctx, 1, attrs)
	d.bytesOut.Add(ctx, written, attrs)
	d.bytesIn.Add(ctx, d.pr.BytesRead(), attrs)
	d.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.lg.Error("roundtrip failed", "messageType", mt,
			"bytesWritten", units.BytesSize(float64(written)),
			"bytesRead", units.BytesSize(float64(d.pr.BytesRead())),
			"elapsed", elapsed, "error", err)
		return err
	}
	d.lg.Debug("roundtrip", "messageType", mt,
		"bytesWritten", units.BytesSize(float64(written)),
		"bytesRead", units.BytesSize(float64(d.pr.BytesRead())),
		"elapsed", elapsed)
	return nil
}
