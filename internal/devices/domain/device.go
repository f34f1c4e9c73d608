package devices

import (
	"database/sql"
	"errors"
	"time"
)

// Node status values reported by the vendor export.
const (
	NodeStatusOnline    = "ONLINE"
	NodeStatusOffline   = "OFFLINE"
	NodeStatusPowerLoss = "POWER LOSS"
)

// Device is one physical streetlight node, keyed by its vendor identifier.
// Every column except ID reflects the most recent load.
type Device struct {
	ID              string
	NodeName        sql.NullString
	Latitude        sql.NullString
	Longitude       sql.NullString
	AlertType       sql.NullString
	AlertValue      sql.NullString
	BurnHours       sql.NullString
	LightStatus     sql.NullString
	NodeStatus      sql.NullString
	NetworkType     sql.NullString
	FirmwareVersion sql.NullString
	InstallDate     sql.NullString
	Utility         sql.NullString
	Timezone        sql.NullString
	Tags            sql.NullString
	LastUpdate      time.Time
}

// Validate checks device invariants.
func (d Device) Validate() error {
	if d.ID == "" {
		return errors.New("device: empty id")
	}
	if d.LastUpdate.IsZero() {
		return errors.New("device: empty last update")
	}
	return nil
}

// DisplayName is the node name when known, else the identifier.
func (d Device) DisplayName() string {
	if d.NodeName.Valid && d.NodeName.String != "" {
		return d.NodeName.String
	}
	return d.ID
}

// IsOnline reports whether a node status counts as online.
func IsOnline(nodeStatus sql.NullString) bool {
	return nodeStatus.Valid && nodeStatus.String == NodeStatusOnline
}

// IsOffline reports whether a node status counts as offline.
func IsOffline(nodeStatus sql.NullString) bool {
	if !nodeStatus.Valid {
		return false
	}
	switch nodeStatus.String {
	case NodeStatusOffline, NodeStatusPowerLoss:
		return true
	}
	return false
}
