package devices

import "context"

// Batch is an open unit of work against the device store. Rows are applied
// under a savepoint so a failing row can be undone without losing the batch.
type Batch interface {
	UpsertDevice(ctx context.Context, device *Device) error
	CreateAlert(ctx context.Context, alert *Alert) error
	Savepoint(ctx context.Context) error
	RollbackToSavepoint(ctx context.Context) error
	ReleaseSavepoint(ctx context.Context) error
	Commit() error
	Rollback() error
}

// Store opens batches.
type Store interface {
	Begin(ctx context.Context) (Batch, error)
}
