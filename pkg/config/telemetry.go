package config

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/version"
)

type Telemetry struct {
	mp  *sdkmetric.MeterProvider
	tp  *sdktrace.TracerProvider
	out io.Closer
}

// SetupTelemetry installs global meter and tracer providers exporting to
// TelemetryOutput (stderr if empty).
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	var w io.Writer = os.Stderr
	ret := &Telemetry{}
	if TelemetryOutput != "" {
		f, err := os.Create(TelemetryOutput)
		if err != nil {
			return nil, err
		}
		w = f
		ret.out = f
	}
	interval, err := time.ParseDuration(TelemetryInterval)
	if err != nil || interval <= 0 {
		interval = 10 * time.Second
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", "splash-track"),
		attribute.String("service.version", version.Version),
	))
	if err != nil {
		return nil, err
	}

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, err
	}
	ret.mp = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(interval))))
	otel.SetMeterProvider(ret.mp)

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	ret.tp = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter))
	otel.SetTracerProvider(ret.tp)
	return ret, nil
}

// Shutdown flushes pending telemetry data.
func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := errors.Join(t.tp.Shutdown(ctx), t.mp.Shutdown(ctx))
	if t.out != nil {
		err = errors.Join(err, t.out.Close())
	}
	if err != nil {
		log.Warn("telemetry shutdown", log.ErrorField(err))
	}
}
