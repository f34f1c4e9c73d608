package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	devices "smartcity-seed/internal/devices/domain"
	"smartcity-seed/internal/observability/metrics"
	"smartcity-seed/internal/ubicquia"
)

// DefaultBatchSize is the number of loaded devices per commit.
const DefaultBatchSize = 100

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// LoadResult summarizes one file load.
type LoadResult struct {
	File    string
	Devices int
	Alerts  int
	Skipped int
	Failed  int
}

// Loader upserts devices and appends alerts from vendor exports.
type Loader struct {
	store     devices.Store
	logger    logrus.FieldLogger
	clock     Clock
	location  *time.Location
	batchSize int
}

// Option configures the loader.
type Option func(*Loader)

// WithClock overrides the load-time clock.
func WithClock(clock Clock) Option {
	return func(l *Loader) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithBatchSize overrides the commit interval.
func WithBatchSize(size int) Option {
	return func(l *Loader) {
		if size > 0 {
			l.batchSize = size
		}
	}
}

// WithLocation sets the zone naive export timestamps are read in.
func WithLocation(loc *time.Location) Option {
	return func(l *Loader) {
		if loc != nil {
			l.location = loc
		}
	}
}

// NewLoader constructs a loader.
func NewLoader(store devices.Store, logger logrus.FieldLogger, opts ...Option) (*Loader, error) {
	if store == nil {
		return nil, errors.New("loader: nil store")
	}
	if logger == nil {
		return nil, errors.New("loader: nil logger")
	}
	l := &Loader{
		store:     store,
		logger:    logger,
		clock:     SystemClock{},
		location:  time.UTC,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load processes one export file end to end.
func (l *Loader) Load(ctx context.Context, path string) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{File: path}, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()
	return l.LoadReader(ctx, path, f)
}

// LoadReader processes an export from r; name identifies it in logs.
// Bad rows are logged and skipped. Only store-level failures (begin,
// savepoint handling, commit) and unreadable input abort the load.
func (l *Loader) LoadReader(ctx context.Context, name string, r io.Reader) (LoadResult, error) {
	result := LoadResult{File: name}
	log := l.logger.WithField("file", name)

	reader, err := ubicquia.NewReader(r)
	if errors.Is(err, ubicquia.ErrMissingHeader) {
		log.Warn("empty export, nothing to load")
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("loader: %s: %w", name, err)
	}
	log.WithField("columns", len(reader.Header())).Info("processing export")

	batch, err := l.store.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("loader: begin: %w", err)
	}
	defer func() { _ = batch.Rollback() }()

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line, rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !ubicquia.IsRowError(err) {
				return result, fmt.Errorf("loader: read %s: %w", name, err)
			}
			result.Skipped++
			logSkip(log.WithField("line", line), err)
			continue
		}

		loadedAt := l.clock.Now()
		device := deviceFromRecord(rec, loadedAt)
		var alert *devices.Alert
		if devices.RaisesAlert(device.AlertType) {
			at, ok := ubicquia.ParseTimestamp(rec.Get(ubicquia.FieldTimestamp).String, l.location)
			if !ok {
				at = loadedAt
			}
			a := devices.NewAlert(device, at)
			alert = &a
		}

		rowErr, err := applyRow(ctx, batch, &device, alert)
		if err != nil {
			return result, fmt.Errorf("loader: %s line %d: %w", name, line, err)
		}
		if rowErr != nil {
			result.Failed++
			metrics.IncRowFailed()
			log.WithFields(logrus.Fields{"line": line, "device_id": device.ID}).WithError(rowErr).Error("error processing row")
			continue
		}

		result.Devices++
		metrics.IncRowLoaded()
		if alert != nil {
			result.Alerts++
			metrics.IncAlert(string(alert.Severity), alert.Status)
		}

		if result.Devices%l.batchSize == 0 {
			if err := batch.Commit(); err != nil {
				return result, fmt.Errorf("loader: commit: %w", err)
			}
			metrics.IncCommit()
			log.WithFields(logrus.Fields{"devices": result.Devices, "alerts": result.Alerts}).Info("processed batch")
			next, err := l.store.Begin(ctx)
			if err != nil {
				return result, fmt.Errorf("loader: begin: %w", err)
			}
			batch = next
		}
	}

	if err := batch.Commit(); err != nil {
		return result, fmt.Errorf("loader: commit: %w", err)
	}
	metrics.IncCommit()
	log.WithFields(logrus.Fields{
		"devices": result.Devices,
		"alerts":  result.Alerts,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("completed export")
	return result, nil
}

// applyRow writes one row under a savepoint. rowErr is a rejected row that
// was rolled back; err means the batch itself is no longer usable.
func applyRow(ctx context.Context, batch devices.Batch, device *devices.Device, alert *devices.Alert) (rowErr error, err error) {
	if err := batch.Savepoint(ctx); err != nil {
		return nil, fmt.Errorf("savepoint: %w", err)
	}
	rowErr = batch.UpsertDevice(ctx, device)
	if rowErr == nil && alert != nil {
		rowErr = batch.CreateAlert(ctx, alert)
	}
	if rowErr != nil {
		if err := batch.RollbackToSavepoint(ctx); err != nil {
			return rowErr, fmt.Errorf("rollback to savepoint: %w", err)
		}
		return rowErr, nil
	}
	if err := batch.ReleaseSavepoint(ctx); err != nil {
		return nil, fmt.Errorf("release savepoint: %w", err)
	}
	return nil, nil
}

func logSkip(log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, ubicquia.ErrMissingDeviceID):
		metrics.IncRowMissingDevice()
		log.Debug("skipping row without device id")
	case errors.Is(err, ubicquia.ErrTruncatedRow):
		metrics.IncRowMalformed()
		log.WithError(err).Error("error processing row")
	case errors.Is(err, ubicquia.ErrMalformedRow):
		metrics.IncRowMalformed()
		log.WithError(err).Warn("skipping malformed row")
	default:
		metrics.IncRowUnreadable()
		log.WithError(err).Warn("skipping unreadable row")
	}
}

func deviceFromRecord(rec ubicquia.Record, loadedAt time.Time) devices.Device {
	return devices.Device{
		ID:              rec.DeviceID(),
		NodeName:        rec.Get(ubicquia.FieldNodeName),
		Latitude:        rec.Get(ubicquia.FieldLatitude),
		Longitude:       rec.Get(ubicquia.FieldLongitude),
		AlertType:       rec.Get(ubicquia.FieldAlertType),
		AlertValue:      rec.Get(ubicquia.FieldAlertValue),
		BurnHours:       rec.Get(ubicquia.FieldBurnHours),
		LightStatus:     rec.Get(ubicquia.FieldLightStatus),
		NodeStatus:      rec.Get(ubicquia.FieldNodeStatus),
		NetworkType:     rec.Get(ubicquia.FieldNetworkType),
		FirmwareVersion: rec.Get(ubicquia.FieldFirmware),
		InstallDate:     rec.Get(ubicquia.FieldInstallDate),
		Utility:         rec.Get(ubicquia.FieldUtility),
		Timezone:        rec.Get(ubicquia.FieldTimezone),
		Tags:            rec.Get(ubicquia.FieldTags),
		LastUpdate:      loadedAt,
	}
}
