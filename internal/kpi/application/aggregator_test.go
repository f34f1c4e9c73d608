package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	devices "smartcity-seed/internal/devices/domain"
	kpi "smartcity-seed/internal/kpi/domain"
	"smartcity-seed/internal/kpi/infrastructure/memory"
	"smartcity-seed/internal/logging"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeSource struct {
	devices []devices.Device
	alerts  []devices.Alert
}

func (s fakeSource) Devices() []devices.Device { return s.devices }
func (s fakeSource) Alerts() []devices.Alert  { return s.alerts }

func status(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestComputeAndStoreEmptyStore(t *testing.T) {
	repo := memory.NewRepository(fakeSource{})
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	agg, err := NewAggregator(repo, fixedClock{now: at}, logging.Discard())
	require.NoError(t, err)

	snap, err := agg.ComputeAndStore(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, snap.HealthScore)
	require.Equal(t, 100, snap.FeederEfficiency)
	require.Equal(t, kpi.AvgResolutionTimeHours, snap.AvgResolutionTime)
	require.Equal(t, at, snap.Timestamp)
	require.Len(t, repo.Snapshots(), 1)
}

func TestComputeAndStoreCounts(t *testing.T) {
	var src fakeSource
	for i := 0; i < 100; i++ {
		s := devices.NodeStatusOnline
		switch {
		case i >= 95:
			s = devices.NodeStatusPowerLoss
		case i >= 80:
			s = devices.NodeStatusOffline
		}
		src.devices = append(src.devices, devices.Device{ID: fmt.Sprintf("D%d", i), NodeStatus: status(s)})
	}
	// an unknown status counts toward the total only
	src.devices = append(src.devices, devices.Device{ID: "DX", NodeStatus: status("MAINTENANCE")})

	addAlerts := func(alertType, st string, n int) {
		for i := 0; i < n; i++ {
			src.alerts = append(src.alerts, devices.Alert{DeviceID: "D1", AlertType: alertType, Status: st})
		}
	}
	addAlerts(devices.AlertTypePowerLoss, devices.StatusActive, 12)
	addAlerts(devices.AlertTypeSuddenTilt, devices.StatusActive, 5)
	addAlerts(devices.AlertTypeLowVoltage, devices.StatusActive, 2)
	addAlerts("Lamp Failure", devices.StatusActive, 1)
	addAlerts(devices.AlertTypePowerLoss, devices.StatusResolved, 7)

	repo := memory.NewRepository(src)
	agg, err := NewAggregator(repo, nil, logging.Discard())
	require.NoError(t, err)

	snap, err := agg.ComputeAndStore(context.Background())
	require.NoError(t, err)
	require.Equal(t, kpi.Counts{
		TotalDevices:   101,
		OnlineDevices:  80,
		OfflineDevices: 20,
		ActiveAlerts:   20,
		PowerLoss:      12,
		SuddenTilt:     5,
		LowVoltage:     2,
	}, snap.Counts)
	require.Equal(t, 79, snap.HealthScore)
	require.Equal(t, 75, snap.FeederEfficiency)
}

func TestComputeAndStoreAppendsEachRun(t *testing.T) {
	repo := memory.NewRepository(fakeSource{})
	agg, err := NewAggregator(repo, nil, logging.Discard())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := agg.ComputeAndStore(context.Background())
		require.NoError(t, err)
	}
	snaps := repo.Snapshots()
	require.Len(t, snaps, 3)
	require.Equal(t, int64(3), snaps[2].ID)
}

type failingRepo struct {
	countsErr error
	insertErr error
}

func (r failingRepo) Counts(context.Context) (kpi.Counts, error) {
	return kpi.Counts{}, r.countsErr
}

func (r failingRepo) Insert(context.Context, *kpi.Snapshot) error {
	return r.insertErr
}

func TestComputeAndStoreErrors(t *testing.T) {
	boom := errors.New("boom")

	agg, err := NewAggregator(failingRepo{countsErr: boom}, nil, logging.Discard())
	require.NoError(t, err)
	_, err = agg.ComputeAndStore(context.Background())
	require.ErrorIs(t, err, boom)

	agg, err = NewAggregator(failingRepo{insertErr: boom}, nil, logging.Discard())
	require.NoError(t, err)
	_, err = agg.ComputeAndStore(context.Background())
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "insert")
}

func TestNewAggregatorValidates(t *testing.T) {
	_, err := NewAggregator(nil, nil, logging.Discard())
	require.Error(t, err)
	_, err = NewAggregator(failingRepo{}, nil, nil)
	require.Error(t, err)
}
