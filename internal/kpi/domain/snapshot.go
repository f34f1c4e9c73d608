package kpi

import (
	"errors"
	"time"
)

// Placeholder values that are not derived from data.
const (
	AvgResolutionTimeHours = 24

	efficiencyFloor           = 75
	efficiencyPenaltyPerAlert = 2
)

// Counts are the aggregates read from the device and alert store.
type Counts struct {
	TotalDevices   int
	OnlineDevices  int
	OfflineDevices int
	ActiveAlerts   int
	PowerLoss      int
	SuddenTilt     int
	LowVoltage     int
}

// Validate checks that counts are non-negative.
func (c Counts) Validate() error {
	for _, v := range []int{
		c.TotalDevices, c.OnlineDevices, c.OfflineDevices,
		c.ActiveAlerts, c.PowerLoss, c.SuddenTilt, c.LowVoltage,
	} {
		if v < 0 {
			return errors.New("kpi: negative count")
		}
	}
	return nil
}

// Snapshot is one point-in-time KPI record. Snapshots are append-only.
type Snapshot struct {
	ID                int64
	Timestamp         time.Time
	Counts            Counts
	HealthScore       int
	FeederEfficiency  int
	AvgResolutionTime int
}

// NewSnapshot derives the scores from counts.
func NewSnapshot(at time.Time, counts Counts) (Snapshot, error) {
	if at.IsZero() {
		return Snapshot{}, errors.New("kpi: empty timestamp")
	}
	if err := counts.Validate(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Timestamp:         at,
		Counts:            counts,
		HealthScore:       HealthScore(counts.OnlineDevices, counts.TotalDevices),
		FeederEfficiency:  FeederEfficiency(counts.ActiveAlerts),
		AvgResolutionTime: AvgResolutionTimeHours,
	}, nil
}

// HealthScore is the percentage of online devices rounded down, 0 without devices.
func HealthScore(online, total int) int {
	if total <= 0 {
		return 0
	}
	return online * 100 / total
}

// FeederEfficiency is a synthetic score that drops with active alerts and
// never goes below the floor. It is not a measured value.
func FeederEfficiency(activeAlerts int) int {
	score := 100 - efficiencyPenaltyPerAlert*activeAlerts
	if score < efficiencyFloor {
		return efficiencyFloor
	}
	return score
}
