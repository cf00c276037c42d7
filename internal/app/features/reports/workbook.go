// internal/app/features/reports/workbook.go
package reports

import (
	"bytes"
	"time"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the rows are written to.
const SheetName = "Reports"

// Columns are the export's header row.
var Columns = []string{"ID", "Created", "Author", "Anonymous", "Message"}

var colWidths = []float64{8, 18, 28, 12, 80}

// Workbook writes rows as an XLSX document, one report per row after the
// header. Messages are written exactly as stored; times are shown in loc.
func Workbook(rows []projection.Row, loc *time.Location) (*bytes.Buffer, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	for i, col := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, col); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		anonymous := "no"
		if row.Report.Anonymous {
			anonymous = "yes"
		}
		values := []any{
			row.Report.ID,
			row.Report.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			row.AuthorLabel(),
			anonymous,
			row.Report.Message,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	for i, width := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}
