package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	kpi "smartcity-seed/internal/kpi/domain"
	"smartcity-seed/internal/observability/metrics"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Aggregator computes and stores KPI snapshots.
type Aggregator struct {
	repo   kpi.Repository
	clock  Clock
	logger logrus.FieldLogger
}

// NewAggregator constructs the aggregator. clock may be nil.
func NewAggregator(repo kpi.Repository, clock Clock, logger logrus.FieldLogger) (*Aggregator, error) {
	if repo == nil {
		return nil, errors.New("kpi aggregator: nil repository")
	}
	if logger == nil {
		return nil, errors.New("kpi aggregator: nil logger")
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Aggregator{repo: repo, clock: clock, logger: logger}, nil
}

// ComputeAndStore reads the current device and alert state and appends
// exactly one snapshot.
func (a *Aggregator) ComputeAndStore(ctx context.Context) (*kpi.Snapshot, error) {
	start := time.Now()
	snapshot, err := a.compute(ctx)
	if err != nil {
		metrics.ObserveSnapshot(metrics.ResultError, time.Since(start))
		return nil, err
	}
	metrics.ObserveSnapshot(metrics.ResultSuccess, time.Since(start))
	metrics.SetSnapshot(snapshot.HealthScore, snapshot.FeederEfficiency, snapshot.Counts.ActiveAlerts)

	a.logger.WithFields(logrus.Fields{
		"total_devices":     snapshot.Counts.TotalDevices,
		"online_devices":    snapshot.Counts.OnlineDevices,
		"offline_devices":   snapshot.Counts.OfflineDevices,
		"active_alerts":     snapshot.Counts.ActiveAlerts,
		"health_score":      snapshot.HealthScore,
		"feeder_efficiency": snapshot.FeederEfficiency,
	}).Info("kpis calculated")
	return snapshot, nil
}

func (a *Aggregator) compute(ctx context.Context) (*kpi.Snapshot, error) {
	counts, err := a.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("kpi aggregator: counts: %w", err)
	}
	snapshot, err := kpi.NewSnapshot(a.clock.Now(), counts)
	if err != nil {
		return nil, fmt.Errorf("kpi aggregator: %w", err)
	}
	if err := a.repo.Insert(ctx, &snapshot); err != nil {
		return nil, fmt.Errorf("kpi aggregator: insert: %w", err)
	}
	return &snapshot, nil
}
