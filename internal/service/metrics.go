package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the domain counters. A nil *Metrics is valid and records
// nothing, which keeps unit tests free of telemetry wiring.
type Metrics struct {
	logins  metric.Int64Counter
	matches metric.Int64Counter
}

// NewMetrics registers the domain counters on the given meter provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("duet-service")

	logins, err := meter.Int64Counter("auth_logins_total",
		metric.WithDescription("Successful logins by channel"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	matches, err := meter.Int64Counter("matches_created_total",
		metric.WithDescription("Matches created by the pairing engine"))
	if err != nil {
		return nil, fmt.Errorf("failed to create matches counter: %w", err)
	}

	return &Metrics{logins: logins, matches: matches}, nil
}

// RecordLogin counts a successful login on a channel (email, phone, wechat).
func (m *Metrics) RecordLogin(ctx context.Context, channel string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

// RecordMatch counts a created match.
func (m *Metrics) RecordMatch(ctx context.Context) {
	if m == nil {
		return
	}
	m.matches.Add(ctx, 1)
}
