package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	kpi "smartcity-seed/internal/kpi/domain"
)

func expectCount(mock sqlmock.Sqlmock, query string, n int64) {
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func TestCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectCount(mock, "SELECT COUNT(*) FROM devices", 100)
	expectCount(mock, `WHERE "nodeStatus" = 'ONLINE'`, 80)
	expectCount(mock, `WHERE "nodeStatus" IN ('OFFLINE', 'POWER LOSS')`, 15)
	expectCount(mock, "FROM alerts WHERE status = 'active'", 9)
	expectCount(mock, `"alertType" = 'Power Loss' AND status = 'active'`, 5)
	expectCount(mock, `"alertType" = 'Sudden Tilt' AND status = 'active'`, 3)
	expectCount(mock, `"alertType" = 'Low Voltage' AND status = 'active'`, 1)

	counts, err := NewRepository(db).Counts(context.Background())
	require.NoError(t, err)
	require.Equal(t, kpi.Counts{
		TotalDevices:   100,
		OnlineDevices:  80,
		OfflineDevices: 15,
		ActiveAlerts:   9,
		PowerLoss:      5,
		SuddenTilt:     3,
		LowVoltage:     1,
	}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountsWrapsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("relation \"devices\" does not exist")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM devices")).WillReturnError(boom)

	_, err = NewRepository(db).Counts(context.Background())
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "total devices")
}

func TestInsertSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap, err := kpi.NewSnapshot(at, kpi.Counts{
		TotalDevices: 100, OnlineDevices: 80, OfflineDevices: 20,
		ActiveAlerts: 20, PowerLoss: 12, SuddenTilt: 6, LowVoltage: 2,
	})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO kpis_it ( timestamp, "avgResolutionTime", "feederEfficiency", "networkStatusOnline",`)).
		WithArgs(at, 24, 75, 80, 20, 20, 80, 100, 80, 20, 12, 6, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	require.NoError(t, NewRepository(db, WithTable("kpis_it")).Insert(context.Background(), &snap))
	require.Equal(t, int64(7), snap.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
