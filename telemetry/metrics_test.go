package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestMetricsRecord(t *testing.T) {
	m, err := NewMetricsWithMeter(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsWithMeter: %v", err)
	}

	ctx := context.Background()
	m.Tick(ctx)
	m.Hit(ctx)
	m.Death(ctx, 0)
	m.Attack(ctx, "clone", 2)
	m.Footstep(ctx, "player")
	m.ClonesSpawned(ctx, 3)
	m.Exit(ctx, "exit-0")
}

func TestMetricsGlobalMeter(t *testing.T) {
	if _, err := NewMetrics(); err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.Tick(ctx)
	m.Attack(ctx, "player", 1)
	m.ClonesSpawned(ctx, 1)
}
