package memory

import (
	"context"
	"errors"
	"sync"

	devices "smartcity-seed/internal/devices/domain"
	kpi "smartcity-seed/internal/kpi/domain"
)

// Source exposes committed devices and alerts.
type Source interface {
	Devices() []devices.Device
	Alerts() []devices.Alert
}

// Repository computes counts from an in-memory source and keeps snapshots.
type Repository struct {
	source Source

	mu        sync.Mutex
	snapshots []kpi.Snapshot
}

// NewRepository constructs a repository over source.
func NewRepository(source Source) *Repository {
	return &Repository{source: source}
}

// Counts mirrors the Postgres aggregate queries.
func (r *Repository) Counts(ctx context.Context) (kpi.Counts, error) {
	if r == nil || r.source == nil {
		return kpi.Counts{}, errors.New("kpi repo: nil source")
	}
	var c kpi.Counts
	for _, device := range r.source.Devices() {
		c.TotalDevices++
		if devices.IsOnline(device.NodeStatus) {
			c.OnlineDevices++
		}
		if devices.IsOffline(device.NodeStatus) {
			c.OfflineDevices++
		}
	}
	for _, alert := range r.source.Alerts() {
		if alert.Status != devices.StatusActive {
			continue
		}
		c.ActiveAlerts++
		switch alert.AlertType {
		case devices.AlertTypePowerLoss:
			c.PowerLoss++
		case devices.AlertTypeSuddenTilt:
			c.SuddenTilt++
		case devices.AlertTypeLowVoltage:
			c.LowVoltage++
		}
	}
	return c, nil
}

// Insert appends a snapshot.
func (r *Repository) Insert(ctx context.Context, snapshot *kpi.Snapshot) error {
	if snapshot == nil {
		return errors.New("kpi repo: nil snapshot")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot.ID = int64(len(r.snapshots) + 1)
	r.snapshots = append(r.snapshots, *snapshot)
	return nil
}

// Snapshots returns stored snapshots in insertion order.
func (r *Repository) Snapshots() []kpi.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kpi.Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}
