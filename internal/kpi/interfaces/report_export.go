package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	kpi "smartcity-seed/internal/kpi/domain"
)

type reportLine struct {
	label string
	value any
}

func reportLines(s *kpi.Snapshot) []reportLine {
	return []reportLine{
		{"Total Devices", s.Counts.TotalDevices},
		{"Online Devices", s.Counts.OnlineDevices},
		{"Offline Devices", s.Counts.OfflineDevices},
		{"Device Health Score (%)", s.HealthScore},
		{"Active Alerts", s.Counts.ActiveAlerts},
		{"Power Loss", s.Counts.PowerLoss},
		{"Sudden Tilt", s.Counts.SuddenTilt},
		{"Low Voltage", s.Counts.LowVoltage},
		{"Feeder Efficiency (%)", s.FeederEfficiency},
		{"Avg Resolution Time (h)", s.AvgResolutionTime},
	}
}

// BuildSnapshotPDF renders a one-page PDF for a KPI snapshot.
func BuildSnapshotPDF(snapshot *kpi.Snapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, errors.New("kpi report: nil snapshot")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Streetlight Network KPIs")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", snapshot.Timestamp.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Metric", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range reportLines(snapshot) {
		pdf.CellFormat(70, 6, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprint(line.value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSnapshotXLSX renders a single-sheet workbook for a KPI snapshot.
func BuildSnapshotXLSX(snapshot *kpi.Snapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, errors.New("kpi report: nil snapshot")
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := "kpis"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Streetlight Network KPIs")
	_ = f.SetCellValue(sheet, "A2", "Generated")
	_ = f.SetCellValue(sheet, "B2", snapshot.Timestamp.Format(time.RFC3339))
	for i, line := range reportLines(snapshot) {
		row := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.value)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSnapshotReports writes kpi-<timestamp>.xlsx and .pdf into dir and
// returns the written paths.
func WriteSnapshotReports(dir string, snapshot *kpi.Snapshot) ([]string, error) {
	if snapshot == nil {
		return nil, errors.New("kpi report: nil snapshot")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kpi report: create dir: %w", err)
	}
	base := "kpi-" + snapshot.Timestamp.UTC().Format("20060102T150405Z")

	builders := []struct {
		ext   string
		build func(*kpi.Snapshot) ([]byte, error)
	}{
		{".xlsx", BuildSnapshotXLSX},
		{".pdf", BuildSnapshotPDF},
	}
	paths := make([]string, 0, len(builders))
	for _, b := range builders {
		data, err := b.build(snapshot)
		if err != nil {
			return paths, fmt.Errorf("kpi report: build %s: %w", b.ext, err)
		}
		path := filepath.Join(dir, base+b.ext)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("kpi report: write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
