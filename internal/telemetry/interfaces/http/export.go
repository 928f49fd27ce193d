package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	telemetry "dronelink-cloud/internal/telemetry/domain"
)

// BuildHistoryXLSX renders stored telemetry for one drone as a spreadsheet.
func BuildHistoryXLSX(droneID string, records []telemetry.Record) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "telemetry"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Drone")
	_ = f.SetCellValue(sheet, "B1", droneID)

	_ = f.SetCellValue(sheet, "A3", "Timestamp")
	_ = f.SetCellValue(sheet, "B3", "Lat")
	_ = f.SetCellValue(sheet, "C3", "Lon")
	_ = f.SetCellValue(sheet, "D3", "Alt")
	_ = f.SetCellValue(sheet, "E3", "Battery")

	for i, rec := range records {
		row := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rec.TS.Format(time.RFC3339))
		if rec.Lat != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), *rec.Lat)
		}
		if rec.Lon != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), *rec.Lon)
		}
		if rec.Alt != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), *rec.Alt)
		}
		if rec.Battery != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), *rec.Battery)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
