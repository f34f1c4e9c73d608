package kpi

import "context"

// Repository reads the aggregates and persists snapshots.
type Repository interface {
	Counts(ctx context.Context) (Counts, error)
	Insert(ctx context.Context, snapshot *Snapshot) error
}
