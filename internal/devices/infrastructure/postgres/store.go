package postgres

import (
	"context"
	"database/sql"
	"errors"

	devices "smartcity-seed/internal/devices/domain"
)

const rowSavepoint = "seed_row"

// Store opens transactional batches on a *sql.DB.
type Store struct {
	db *sql.DB
}

// NewStore constructs a store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (devices.Batch, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("device store: nil db")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &batch{
		tx:      tx,
		devices: NewDeviceRepository(tx),
		alerts:  NewAlertRepository(tx),
	}, nil
}

type batch struct {
	tx      *sql.Tx
	devices *DeviceRepository
	alerts  *AlertRepository
}

func (b *batch) UpsertDevice(ctx context.Context, device *devices.Device) error {
	return b.devices.Upsert(ctx, device)
}

func (b *batch) CreateAlert(ctx context.Context, alert *devices.Alert) error {
	return b.alerts.Create(ctx, alert)
}

func (b *batch) Savepoint(ctx context.Context) error {
	_, err := b.tx.ExecContext(ctx, "SAVEPOINT "+rowSavepoint)
	return err
}

func (b *batch) RollbackToSavepoint(ctx context.Context) error {
	_, err := b.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+rowSavepoint)
	return err
}

func (b *batch) ReleaseSavepoint(ctx context.Context) error {
	_, err := b.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+rowSavepoint)
	return err
}

func (b *batch) Commit() error {
	return b.tx.Commit()
}

func (b *batch) Rollback() error {
	return b.tx.Rollback()
}
