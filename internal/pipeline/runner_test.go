package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	deviceapp "smartcity-seed/internal/devices/application"
	devicememory "smartcity-seed/internal/devices/infrastructure/memory"
	kpiapp "smartcity-seed/internal/kpi/application"
	kpi "smartcity-seed/internal/kpi/domain"
	kpimemory "smartcity-seed/internal/kpi/infrastructure/memory"
	"smartcity-seed/internal/logging"
)

func exportRow(values map[int]string) string {
	parts := make([]string, 32)
	for i := range parts {
		parts[i] = "-"
	}
	parts[0] = "0"
	for idx, v := range values {
		parts[idx] = v
	}
	return `"` + strings.Join(parts, ",") + `"`
}

func writeExport(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ",Alert Time,Alert Type\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type fixture struct {
	devices *devicememory.Store
	kpis    *kpimemory.Repository
	runner  *Runner
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	store := devicememory.NewStore()
	loader, err := deviceapp.NewLoader(store, logging.Discard())
	require.NoError(t, err)
	repo := kpimemory.NewRepository(store)
	agg, err := kpiapp.NewAggregator(repo, nil, logging.Discard())
	require.NoError(t, err)
	runner, err := NewRunner(loader, agg, logging.Discard(), opts)
	require.NoError(t, err)
	return fixture{devices: store, kpis: repo, runner: runner}
}

func TestRunLoadsFilesAndStoresSnapshot(t *testing.T) {
	dir := t.TempDir()
	first := writeExport(t, dir, "adjusted.csv",
		exportRow(map[int]string{6: "D1", 24: "ONLINE"}),
		exportRow(map[int]string{2: "Power Loss", 6: "D2", 24: "POWER LOSS"}),
	)
	second := writeExport(t, dir, "full.csv",
		exportRow(map[int]string{2: "Sudden Tilt", 6: "D1", 24: "ONLINE"}),
		exportRow(map[int]string{2: "Low Voltage", 6: "D3", 24: "OFFLINE"}),
	)
	missing := filepath.Join(dir, "missing.csv")

	fx := newFixture(t, Options{})
	summary, err := fx.runner.Run(context.Background(), []string{first, missing, second})
	require.NoError(t, err)

	require.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Files, 2)
	require.Equal(t, []string{missing}, summary.Missing)
	require.Equal(t, 4, summary.Devices())
	require.Equal(t, 3, summary.Alerts())
	require.Len(t, fx.devices.Devices(), 3)

	require.NotNil(t, summary.Snapshot)
	require.Equal(t, kpi.Counts{
		TotalDevices:   3,
		OnlineDevices:  1,
		OfflineDevices: 2,
		ActiveAlerts:   2,
		PowerLoss:      1,
		LowVoltage:     1,
	}, summary.Snapshot.Counts)
	require.Equal(t, 33, summary.Snapshot.HealthScore)
	require.Equal(t, 96, summary.Snapshot.FeederEfficiency)
	require.Len(t, fx.kpis.Snapshots(), 1)
}

func TestRunContinuesPastEmptyExport(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	good := writeExport(t, dir, "good.csv", exportRow(map[int]string{6: "D1", 24: "ONLINE"}))

	fx := newFixture(t, Options{})
	summary, err := fx.runner.Run(context.Background(), []string{empty, good})
	require.NoError(t, err)
	require.Len(t, summary.Files, 2)
	require.Equal(t, 0, summary.Files[0].Devices)
	require.Equal(t, 1, summary.Devices())
	require.Equal(t, 100, summary.Snapshot.HealthScore)
	require.Len(t, fx.kpis.Snapshots(), 1)
}

func TestRunWithNoFilesStillStoresSnapshot(t *testing.T) {
	fx := newFixture(t, Options{})
	summary, err := fx.runner.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.csv")})
	require.NoError(t, err)
	require.Empty(t, summary.Files)
	require.Equal(t, 0, summary.Snapshot.HealthScore)
	require.Len(t, fx.kpis.Snapshots(), 1)
}

func TestRunWritesReportsAndMetrics(t *testing.T) {
	dir := t.TempDir()
	file := writeExport(t, dir, "export.csv", exportRow(map[int]string{6: "D1", 24: "ONLINE"}))
	reportDir := filepath.Join(dir, "reports")
	textfile := filepath.Join(dir, "seed.prom")

	fx := newFixture(t, Options{ReportDir: reportDir, MetricsTextfile: textfile})
	summary, err := fx.runner.Run(context.Background(), []string{file})
	require.NoError(t, err)

	require.Len(t, summary.Reports, 2)
	for _, p := range summary.Reports {
		require.FileExists(t, p)
	}
	require.FileExists(t, textfile)
}

type errLoader struct{ err error }

func (l errLoader) Load(context.Context, string) (deviceapp.LoadResult, error) {
	return deviceapp.LoadResult{}, l.err
}

type countingAggregator struct{ calls int }

func (a *countingAggregator) ComputeAndStore(context.Context) (*kpi.Snapshot, error) {
	a.calls++
	return &kpi.Snapshot{}, nil
}

func TestRunStopsOnLoaderError(t *testing.T) {
	dir := t.TempDir()
	file := writeExport(t, dir, "export.csv", exportRow(map[int]string{6: "D1"}))

	boom := errors.New("connection reset")
	agg := &countingAggregator{}
	runner, err := NewRunner(errLoader{err: boom}, agg, logging.Discard(), Options{})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), []string{file})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, agg.calls)
}

func TestNewRunnerValidates(t *testing.T) {
	agg := &countingAggregator{}
	_, err := NewRunner(nil, agg, logging.Discard(), Options{})
	require.Error(t, err)
	_, err = NewRunner(errLoader{}, nil, logging.Discard(), Options{})
	require.Error(t, err)
	_, err = NewRunner(errLoader{}, agg, nil, Options{})
	require.Error(t, err)
}
