package devices

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	StatusActive   = "active"
	StatusResolved = "resolved"
)

// Alert is an append-only event reported for a device.
type Alert struct {
	ID          int64
	DeviceID    string
	Timestamp   time.Time
	AlertType   string
	AlertValue  sql.NullString
	Severity    Severity
	Status      string
	Latitude    sql.NullString
	Longitude   sql.NullString
	Description string
}

// Validate checks alert invariants.
func (a Alert) Validate() error {
	if a.DeviceID == "" {
		return errors.New("alert: empty device id")
	}
	if a.AlertType == "" {
		return errors.New("alert: empty alert type")
	}
	if a.Timestamp.IsZero() {
		return errors.New("alert: empty timestamp")
	}
	if !a.Severity.IsValid() {
		return fmt.Errorf("alert: invalid severity %q", a.Severity)
	}
	if a.Status != StatusActive && a.Status != StatusResolved {
		return fmt.Errorf("alert: invalid status %q", a.Status)
	}
	return nil
}

// RaisesAlert reports whether an observed alert type produces an Alert row.
// Missing GPS is tracked on the device only.
func RaisesAlert(alertType sql.NullString) bool {
	return alertType.Valid && alertType.String != "" && alertType.String != AlertTypeNoGPS
}

// StatusFor derives the alert status from the device's node status.
func StatusFor(nodeStatus sql.NullString) string {
	if IsOffline(nodeStatus) {
		return StatusActive
	}
	return StatusResolved
}

// NewAlert derives an alert from the device's current observation.
func NewAlert(device Device, at time.Time) Alert {
	alertType := device.AlertType.String
	return Alert{
		DeviceID:    device.ID,
		Timestamp:   at,
		AlertType:   alertType,
		AlertValue:  device.AlertValue,
		Severity:    SeverityFor(alertType),
		Status:      StatusFor(device.NodeStatus),
		Latitude:    device.Latitude,
		Longitude:   device.Longitude,
		Description: fmt.Sprintf("%s detected on %s", alertType, device.DisplayName()),
	}
}
