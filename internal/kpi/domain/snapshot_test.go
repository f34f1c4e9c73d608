package kpi

import (
	"testing"
	"time"
)

func TestHealthScore(t *testing.T) {
	cases := []struct {
		online, total, want int
	}{
		{0, 0, 0},
		{80, 100, 80},
		{1, 3, 33},
		{2, 3, 66},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := HealthScore(tc.online, tc.total); got != tc.want {
			t.Fatalf("HealthScore(%d, %d) = %d, want %d", tc.online, tc.total, got, tc.want)
		}
	}
}

func TestFeederEfficiency(t *testing.T) {
	cases := []struct {
		active, want int
	}{
		{0, 100},
		{5, 90},
		{12, 76},
		{13, 75},
		{20, 75},
		{500, 75},
	}
	for _, tc := range cases {
		if got := FeederEfficiency(tc.active); got != tc.want {
			t.Fatalf("FeederEfficiency(%d) = %d, want %d", tc.active, got, tc.want)
		}
	}
}

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap, err := NewSnapshot(at, Counts{TotalDevices: 100, OnlineDevices: 80, OfflineDevices: 20, ActiveAlerts: 20, PowerLoss: 20})
	if err != nil {
		t.Fatalf("new snapshot: %v", err)
	}
	if snap.HealthScore != 80 || snap.FeederEfficiency != 75 || snap.AvgResolutionTime != 24 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !snap.Timestamp.Equal(at) {
		t.Fatalf("timestamp mismatch")
	}

	empty, err := NewSnapshot(at, Counts{})
	if err != nil {
		t.Fatalf("empty snapshot: %v", err)
	}
	if empty.HealthScore != 0 || empty.FeederEfficiency != 100 {
		t.Fatalf("unexpected empty snapshot %+v", empty)
	}
}

func TestNewSnapshotRejectsInvalidInput(t *testing.T) {
	if _, err := NewSnapshot(time.Time{}, Counts{}); err == nil {
		t.Fatalf("expected error for zero timestamp")
	}
	if _, err := NewSnapshot(time.Now(), Counts{ActiveAlerts: -1}); err == nil {
		t.Fatalf("expected error for negative count")
	}
}
