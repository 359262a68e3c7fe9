package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/pthm-cable/afterimage/telemetry"

// meter returns the meter from the global OTel provider (no-op if not configured).
func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the simulation's OTel counters. A nil *Metrics records nothing.
type Metrics struct {
	ticks     metric.Int64Counter
	hits      metric.Int64Counter
	deaths    metric.Int64Counter
	attacks   metric.Int64Counter
	stuns     metric.Int64Counter
	footsteps metric.Int64Counter
	clones    metric.Int64Counter
	exits     metric.Int64Counter
}

// NewMetrics creates the counters on the global meter.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(meter())
}

// NewMetricsWithMeter creates the counters on the given meter.
func NewMetricsWithMeter(m metric.Meter) (*Metrics, error) {
	mt := &Metrics{}
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&mt.ticks, "sim.ticks", "Simulation ticks advanced"},
		{&mt.hits, "player.hits", "Hostile contacts with the protagonist"},
		{&mt.deaths, "player.deaths", "Lives ended by death"},
		{&mt.attacks, "attacks", "Attacks by the protagonist and clones"},
		{&mt.stuns, "pursuers.stunned", "Pursuers stunned by attacks"},
		{&mt.footsteps, "footsteps", "Footstep events"},
		{&mt.clones, "clones.spawned", "Clones bound to sealed lives"},
		{&mt.exits, "exits.found", "Exits reached"},
	} {
		counter, err := m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}
	return mt, nil
}

// Tick counts one simulation tick.
func (m *Metrics) Tick(ctx context.Context) {
	if m == nil {
		return
	}
	m.ticks.Add(ctx, 1)
}

// Hit counts a hostile contact.
func (m *Metrics) Hit(ctx context.Context) {
	if m == nil {
		return
	}
	m.hits.Add(ctx, 1)
}

// Death counts a death in the given life.
func (m *Metrics) Death(ctx context.Context, life int) {
	if m == nil {
		return
	}
	m.deaths.Add(ctx, 1, metric.WithAttributes(attribute.Int("life", life)))
}

// Attack counts an attack and the pursuers it stunned. source is "player" or "clone".
func (m *Metrics) Attack(ctx context.Context, source string, stunned int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.attacks.Add(ctx, 1, attrs)
	if stunned > 0 {
		m.stuns.Add(ctx, int64(stunned), attrs)
	}
}

// Footstep counts a footstep. source is "player" or "clone".
func (m *Metrics) Footstep(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.footsteps.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// ClonesSpawned counts clones created on a respawn.
func (m *Metrics) ClonesSpawned(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.clones.Add(ctx, int64(n))
}

// Exit counts an exit reached.
func (m *Metrics) Exit(ctx context.Context, id string) {
	if m == nil {
		return
	}
	m.exits.Add(ctx, 1, metric.WithAttributes(attribute.String("exit", id)))
}
