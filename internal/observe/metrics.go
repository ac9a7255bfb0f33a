// Package observe holds the engine's OpenTelemetry metric instruments.
//
// Tests should build a Metrics with NewMetrics and their own
// metric.MeterProvider; DefaultMetrics uses the global provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all engine metrics
const meterName = "github.com/KirkDiggler/combat-engine"

// Metrics holds the engine's counters. A nil *Metrics records nothing.
type Metrics struct {
	// Chains counts finished chains. Attribute: status.
	Chains metric.Int64Counter

	// LinksResolved counts links resolved across all chains.
	LinksResolved metric.Int64Counter

	// InterruptAttempts counts interrupt contests. Attributes: when, broken.
	InterruptAttempts metric.Int64Counter

	// StatusTickDamage sums damage dealt by status upkeep.
	StatusTickDamage metric.Int64Counter
}

// NewMetrics creates every instrument from mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Chains, err = m.Int64Counter("combat.chains",
		metric.WithDescription("Finished chains by terminal status."),
	); err != nil {
		return nil, err
	}
	if met.LinksResolved, err = m.Int64Counter("combat.links.resolved",
		metric.WithDescription("Chain links resolved."),
	); err != nil {
		return nil, err
	}
	if met.InterruptAttempts, err = m.Int64Counter("combat.interrupt.attempts",
		metric.WithDescription("Interrupt contests by window phase and whether the chain broke."),
	); err != nil {
		return nil, err
	}
	if met.StatusTickDamage, err = m.Int64Counter("combat.status.tick_damage",
		metric.WithDescription("Damage dealt by status upkeep."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics built from the global
// meter provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordChain counts a finished chain and its resolved links
func (m *Metrics) RecordChain(ctx context.Context, status string, links int) {
	if m == nil {
		return
	}
	m.Chains.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if links > 0 {
		m.LinksResolved.Add(ctx, int64(links))
	}
}

// RecordInterrupt counts an interrupt contest
func (m *Metrics) RecordInterrupt(ctx context.Context, when string, broken bool) {
	if m == nil {
		return
	}
	m.InterruptAttempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("when", when),
			attribute.Bool("broken", broken),
		),
	)
}

// RecordTickDamage counts damage dealt by a status tick
func (m *Metrics) RecordTickDamage(ctx context.Context, damage int) {
	if m == nil || damage <= 0 {
		return
	}
	m.StatusTickDamage.Add(ctx, int64(damage))
}
