package postgres

import (
	"context"
	"errors"

	devices "smartcity-seed/internal/devices/domain"
	storage "smartcity-seed/internal/storage/postgres"
)

// AlertRepository is a Postgres repository for alerts. Alerts are only ever
// appended; there is no update or dedupe path.
type AlertRepository struct {
	db storage.DBTX
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db storage.DBTX) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts a new alert and sets its generated id.
func (r *AlertRepository) Create(ctx context.Context, alert *devices.Alert) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	if alert == nil {
		return errors.New("alert repo: nil alert")
	}
	if err := alert.Validate(); err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
INSERT INTO alerts (
	"deviceId", timestamp, "alertType", "alertValue", severity, status,
	latitude, longitude, description
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9
)
RETURNING id`,
		alert.DeviceID,
		alert.Timestamp,
		alert.AlertType,
		alert.AlertValue,
		string(alert.Severity),
		alert.Status,
		alert.Latitude,
		alert.Longitude,
		alert.Description,
	).Scan(&alert.ID)
}
