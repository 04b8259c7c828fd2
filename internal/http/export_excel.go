package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"healthsync/internal/models"
	"healthsync/internal/service"

	"github.com/xuri/excelize/v2"
)

// PatientExportHeader 患者导出表头
var PatientExportHeader = []string{
	"Patient ID",
	"Name",
	"Age",
	"Gender",
	"Medical Conditions",
	"Connection",
	"Heart Rate (BPM)",
	"Oxygen Level (%)",
	"Health Status",
	"Last Reading",
}

// AlertExportHeader 报警导出表头
var AlertExportHeader = []string{
	"Alert ID",
	"Patient ID",
	"Patient Name",
	"Severity",
	"Issue",
	"Message",
	"Date Time",
	"Resolved",
}

// GeneratePatientExport 患者列表 xlsx
func GeneratePatientExport(patients []service.PatientView, loc *time.Location) ([]byte, error) {
	rows := make([][]any, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []any{
			p.PatientID,
			p.Name,
			p.Age,
			p.Gender,
			p.MedicalConditions,
			string(p.ConnectionStatus),
			intOrBlank(p.HeartRate),
			intOrBlank(p.OxygenLevel),
			string(p.HealthStatus),
			timeOrBlank(p.LastReading, loc),
		})
	}
	return generateExcel("Patients", PatientExportHeader, []float64{14, 24, 8, 10, 30, 12, 16, 16, 14, 20}, rows)
}

// GenerateAlertExport 报警列表 xlsx
func GenerateAlertExport(alerts []models.Alert, loc *time.Location) ([]byte, error) {
	rows := make([][]any, 0, len(alerts))
	for _, a := range alerts {
		resolved := "No"
		if a.Resolved {
			resolved = "Yes"
		}
		at := a.Datetime
		rows = append(rows, []any{
			a.AlertID,
			a.PatientID,
			a.PatientName,
			string(a.SeverityLevel),
			a.IssueDetected,
			a.Message,
			timeOrBlank(&at, loc),
			resolved,
		})
	}
	return generateExcel("Alerts", AlertExportHeader, []float64{14, 14, 24, 10, 28, 40, 20, 10}, rows)
}

// generateExcel 单 sheet：加粗表头 + 数据行
func generateExcel(sheetName string, headers []string, widths []float64, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return nil, fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheetName, name, name, widths[col]); err != nil {
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func intOrBlank(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func timeOrBlank(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if loc != nil {
		return t.In(loc).Format("2006-01-02 15:04:05")
	}
	return t.Format("2006-01-02 15:04:05")
}
