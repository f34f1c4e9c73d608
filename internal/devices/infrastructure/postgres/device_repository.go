package postgres

import (
	"context"
	"errors"
	"fmt"

	devices "smartcity-seed/internal/devices/domain"
	storage "smartcity-seed/internal/storage/postgres"
)

const defaultDevicesTable = "devices"

// DeviceRepository is a Postgres implementation for devices.
type DeviceRepository struct {
	db    storage.DBTX
	table string
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository(db storage.DBTX, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDeviceTable overrides the default table name.
func WithDeviceTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Upsert inserts a device or replaces every mutable column of the existing row.
func (r *DeviceRepository) Upsert(ctx context.Context, device *devices.Device) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if device == nil {
		return errors.New("device repo: nil device")
	}
	if err := device.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	"deviceId", "nodeName", latitude, longitude, "alertType", "alertValue",
	"burnHours", "lightStatus", "nodeStatus", "networkType", "firmwareVersion",
	"installDate", utility, timezone, tags, "lastUpdate"
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9, $10, $11,
	$12, $13, $14, $15, $16
)
ON CONFLICT ("deviceId")
DO UPDATE SET
	"nodeName" = EXCLUDED."nodeName",
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	"alertType" = EXCLUDED."alertType",
	"alertValue" = EXCLUDED."alertValue",
	"burnHours" = EXCLUDED."burnHours",
	"lightStatus" = EXCLUDED."lightStatus",
	"nodeStatus" = EXCLUDED."nodeStatus",
	"networkType" = EXCLUDED."networkType",
	"firmwareVersion" = EXCLUDED."firmwareVersion",
	"installDate" = EXCLUDED."installDate",
	utility = EXCLUDED.utility,
	timezone = EXCLUDED.timezone,
	tags = EXCLUDED.tags,
	"lastUpdate" = EXCLUDED."lastUpdate"`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		device.ID,
		device.NodeName,
		device.Latitude,
		device.Longitude,
		device.AlertType,
		device.AlertValue,
		device.BurnHours,
		device.LightStatus,
		device.NodeStatus,
		device.NetworkType,
		device.FirmwareVersion,
		device.InstallDate,
		device.Utility,
		device.Timezone,
		device.Tags,
		device.LastUpdate,
	)
	return err
}
