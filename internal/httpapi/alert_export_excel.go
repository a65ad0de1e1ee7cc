package httpapi

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// AlertExportHeader 告警导出表头
var AlertExportHeader = []string{
	"Time",
	"Array",
	"Observer",
	"Category",
	"Level",
	"Event",
	"Impact",
	"Suggestion",
	"Raw Message",
}

// GenerateAlertExport 生成告警导出 Excel 文件
// items 为空时只生成表头
func GenerateAlertExport(items []TranslatedAlert) ([]byte, error) {
	f := excelize.NewFile()
	// WriteToBuffer 之前不能 Close

	sheetName := "Alerts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range AlertExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		22, // Time
		16, // Array
		16, // Observer
		12, // Category
		10, // Level
		50, // Event
		40, // Impact
		40, // Suggestion
		60, // Raw Message
	}
	for i := range AlertExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for rowIdx, item := range items {
		values := []any{
			item.Alert.Timestamp,
			item.Alert.ArrayName,
			item.ObserverLabel,
			item.CategoryLabel,
			string(item.Alert.Level),
			item.Event,
			item.Impact,
			item.Suggestion,
			item.Alert.Message,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	f.Close()

	return buf.Bytes(), nil
}
