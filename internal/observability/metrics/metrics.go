package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	metricPrefix = "smartcity_seed_"

	resultSuccess = "success"
	resultError   = "error"

	rowLoaded           = "loaded"
	rowFailed           = "failed"
	rowMalformed        = "malformed"
	rowMissingDevice    = "missing_device_id"
	rowUnreadable       = "unreadable"
	fileSkippedNotFound = "not_found"
)

var (
	registerOnce sync.Once

	rowsTotal      *prometheus.CounterVec
	alertsTotal    *prometheus.CounterVec
	commitsTotal   prometheus.Counter
	filesTotal     *prometheus.CounterVec
	fileLatency    *prometheus.HistogramVec
	kpiTotal       *prometheus.CounterVec
	kpiLatency     *prometheus.HistogramVec
	kpiHealthScore prometheus.Gauge
	kpiEfficiency  prometheus.Gauge
	kpiActive      prometheus.Gauge
	lastRunSuccess prometheus.Gauge
)

// Init registers seeder metrics and DB-backed gauges on the default registry.
func Init(db *sql.DB, logger logrus.FieldLogger) {
	registerOnce.Do(func() {
		rowsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_total",
				Help: "Export rows processed by outcome",
			},
			[]string{"outcome"},
		)
		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Alerts inserted by severity and status",
			},
			[]string{"severity", "status"},
		)
		commitsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_commits_total",
				Help: "Committed load batches",
			},
		)
		filesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "files_total",
				Help: "Input files by result",
			},
			[]string{"result"},
		)
		fileLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "file_load_seconds",
				Help:    "File load duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		kpiTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "kpi_snapshots_total",
				Help: "KPI snapshot computations by result",
			},
			[]string{"result"},
		)
		kpiLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "kpi_snapshot_seconds",
				Help:    "KPI snapshot duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		kpiHealthScore = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "device_health_score",
			Help: "Device health score of the last snapshot",
		})
		kpiEfficiency = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "feeder_efficiency",
			Help: "Feeder efficiency of the last snapshot",
		})
		kpiActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "active_alerts",
			Help: "Active alerts of the last snapshot",
		})
		lastRunSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "last_run_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		})

		prometheus.MustRegister(
			rowsTotal,
			alertsTotal,
			commitsTotal,
			filesTotal,
			fileLatency,
			kpiTotal,
			kpiLatency,
			kpiHealthScore,
			kpiEfficiency,
			kpiActive,
			lastRunSuccess,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncRowLoaded counts a row that produced a device.
func IncRowLoaded() { incRow(rowLoaded) }

// IncRowFailed counts a row rejected by the store.
func IncRowFailed() { incRow(rowFailed) }

// IncRowMalformed counts a row with too few sub-fields.
func IncRowMalformed() { incRow(rowMalformed) }

// IncRowMissingDevice counts a row without a device id.
func IncRowMissingDevice() { incRow(rowMissingDevice) }

// IncRowUnreadable counts a row the CSV reader could not parse.
func IncRowUnreadable() { incRow(rowUnreadable) }

func incRow(outcome string) {
	if rowsTotal != nil {
		rowsTotal.WithLabelValues(outcome).Inc()
	}
}

// IncAlert counts an inserted alert.
func IncAlert(severity, status string) {
	if severity == "" {
		severity = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(severity, status).Inc()
	}
}

// IncCommit counts a committed batch.
func IncCommit() {
	if commitsTotal != nil {
		commitsTotal.Inc()
	}
}

// IncFileNotFound counts a configured input file that does not exist.
func IncFileNotFound() {
	if filesTotal != nil {
		filesTotal.WithLabelValues(fileSkippedNotFound).Inc()
	}
}

// ObserveFileLoad records file load duration and result.
func ObserveFileLoad(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if filesTotal != nil {
		filesTotal.WithLabelValues(result).Inc()
	}
	if fileLatency != nil {
		fileLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveSnapshot records KPI computation duration and result.
func ObserveSnapshot(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if kpiTotal != nil {
		kpiTotal.WithLabelValues(result).Inc()
	}
	if kpiLatency != nil {
		kpiLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetSnapshot publishes the headline KPI values.
func SetSnapshot(healthScore, feederEfficiency, activeAlerts int) {
	if kpiHealthScore != nil {
		kpiHealthScore.Set(float64(healthScore))
	}
	if kpiEfficiency != nil {
		kpiEfficiency.Set(float64(feederEfficiency))
	}
	if kpiActive != nil {
		kpiActive.Set(float64(activeAlerts))
	}
}

// MarkRunSuccess stamps the last successful run.
func MarkRunSuccess(at time.Time) {
	if lastRunSuccess != nil {
		lastRunSuccess.Set(float64(at.Unix()))
	}
}

// WriteTextfile dumps the default registry for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
