package postgres

import (
	"context"
	"errors"
	"fmt"

	kpi "smartcity-seed/internal/kpi/domain"
	storage "smartcity-seed/internal/storage/postgres"
)

const defaultKPITable = "kpis"

// Repository is a Postgres implementation for KPI snapshots.
type Repository struct {
	db    storage.DBTX
	table string
}

// Option configures the repository.
type Option func(*Repository)

// WithTable overrides the default snapshot table name.
func WithTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db storage.DBTX, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultKPITable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

var countQueries = []struct {
	name  string
	query string
	dest  func(*kpi.Counts) *int
}{
	{"total devices", "SELECT COUNT(*) FROM devices", func(c *kpi.Counts) *int { return &c.TotalDevices }},
	{"online devices", `SELECT COUNT(*) FROM devices WHERE "nodeStatus" = 'ONLINE'`, func(c *kpi.Counts) *int { return &c.OnlineDevices }},
	{"offline devices", `SELECT COUNT(*) FROM devices WHERE "nodeStatus" IN ('OFFLINE', 'POWER LOSS')`, func(c *kpi.Counts) *int { return &c.OfflineDevices }},
	{"active alerts", "SELECT COUNT(*) FROM alerts WHERE status = 'active'", func(c *kpi.Counts) *int { return &c.ActiveAlerts }},
	{"power loss", `SELECT COUNT(*) FROM alerts WHERE "alertType" = 'Power Loss' AND status = 'active'`, func(c *kpi.Counts) *int { return &c.PowerLoss }},
	{"sudden tilt", `SELECT COUNT(*) FROM alerts WHERE "alertType" = 'Sudden Tilt' AND status = 'active'`, func(c *kpi.Counts) *int { return &c.SuddenTilt }},
	{"low voltage", `SELECT COUNT(*) FROM alerts WHERE "alertType" = 'Low Voltage' AND status = 'active'`, func(c *kpi.Counts) *int { return &c.LowVoltage }},
}

// Counts runs the aggregate queries over devices and alerts.
func (r *Repository) Counts(ctx context.Context) (kpi.Counts, error) {
	var counts kpi.Counts
	if r == nil || r.db == nil {
		return counts, errors.New("kpi repo: nil db")
	}
	for _, q := range countQueries {
		if err := r.db.QueryRowContext(ctx, q.query).Scan(q.dest(&counts)); err != nil {
			return kpi.Counts{}, fmt.Errorf("kpi repo: count %s: %w", q.name, err)
		}
	}
	return counts, nil
}

// Insert appends a snapshot and sets its generated id.
func (r *Repository) Insert(ctx context.Context, snapshot *kpi.Snapshot) error {
	if r == nil || r.db == nil {
		return errors.New("kpi repo: nil db")
	}
	if snapshot == nil {
		return errors.New("kpi repo: nil snapshot")
	}
	c := snapshot.Counts
	query := fmt.Sprintf(`
INSERT INTO %s (
	timestamp, "avgResolutionTime", "feederEfficiency", "networkStatusOnline",
	"networkStatusOffline", "activeAlertsCount", "deviceHealthScore", "totalDevices",
	"onlineDevices", "offlineDevices", "powerLossCount", "tiltAlertCount", "lowVoltageCount"
) VALUES (
	$1, $2, $3, $4,
	$5, $6, $7, $8,
	$9, $10, $11, $12, $13
)
RETURNING id`, r.table)
	return r.db.QueryRowContext(
		ctx,
		query,
		snapshot.Timestamp,
		snapshot.AvgResolutionTime,
		snapshot.FeederEfficiency,
		c.OnlineDevices,
		c.OfflineDevices,
		c.ActiveAlerts,
		snapshot.HealthScore,
		c.TotalDevices,
		c.OnlineDevices,
		c.OfflineDevices,
		c.PowerLoss,
		c.SuddenTilt,
		c.LowVoltage,
	).Scan(&snapshot.ID)
}
