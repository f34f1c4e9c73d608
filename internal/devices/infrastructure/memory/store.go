package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	devices "smartcity-seed/internal/devices/domain"
)

// Store is an in-memory device store for demo/testing. Batches work on a
// copy of the committed state and publish it on Commit.
type Store struct {
	mu      sync.RWMutex
	state   state
	commits int
}

type state struct {
	devices map[string]devices.Device
	alerts  []devices.Alert
	nextID  int64
}

func (s state) clone() state {
	out := state{
		devices: make(map[string]devices.Device, len(s.devices)),
		alerts:  make([]devices.Alert, len(s.alerts)),
		nextID:  s.nextID,
	}
	for id, device := range s.devices {
		out.devices[id] = device
	}
	copy(out.alerts, s.alerts)
	return out
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{state: state{devices: make(map[string]devices.Device)}}
}

// Begin starts a batch.
func (s *Store) Begin(ctx context.Context) (devices.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &batch{store: s, work: s.state.clone()}, nil
}

// Devices returns committed devices ordered by id.
func (s *Store) Devices() []devices.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]devices.Device, 0, len(s.state.devices))
	for _, device := range s.state.devices {
		result = append(result, device)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Alerts returns committed alerts in insertion order.
func (s *Store) Alerts() []devices.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]devices.Alert, len(s.state.alerts))
	copy(result, s.state.alerts)
	return result
}

// Commits returns how many batches were committed.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

type batch struct {
	store     *Store
	work      state
	savepoint *state
	done      bool
}

func (b *batch) UpsertDevice(ctx context.Context, device *devices.Device) error {
	if device == nil {
		return errors.New("device store: nil device")
	}
	if err := device.Validate(); err != nil {
		return err
	}
	b.work.devices[device.ID] = *device
	return nil
}

func (b *batch) CreateAlert(ctx context.Context, alert *devices.Alert) error {
	if alert == nil {
		return errors.New("device store: nil alert")
	}
	if err := alert.Validate(); err != nil {
		return err
	}
	b.work.nextID++
	alert.ID = b.work.nextID
	b.work.alerts = append(b.work.alerts, *alert)
	return nil
}

func (b *batch) Savepoint(ctx context.Context) error {
	snapshot := b.work.clone()
	b.savepoint = &snapshot
	return nil
}

func (b *batch) RollbackToSavepoint(ctx context.Context) error {
	if b.savepoint == nil {
		return errors.New("device store: no savepoint")
	}
	b.work = b.savepoint.clone()
	return nil
}

func (b *batch) ReleaseSavepoint(ctx context.Context) error {
	if b.savepoint == nil {
		return errors.New("device store: no savepoint")
	}
	b.savepoint = nil
	return nil
}

func (b *batch) Commit() error {
	if b.done {
		return errors.New("device store: batch already closed")
	}
	b.done = true
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.state = b.work
	b.store.commits++
	return nil
}

func (b *batch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return nil
}
