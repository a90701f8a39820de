package report

import (
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/foxxcyber/pex/internal/models"
)

const sheet = "Sheet1"

var xlsxColumns = []string{"A", "B", "C", "D", "E", "F"}

// WriteXLSX writes the report as a single-sheet workbook.
// Quantity and days are numeric cells so the sheet can be sorted and summed.
func WriteXLSX(w io.Writer, products []models.Product, generatedAt time.Time) error {
	f := excelize.NewFile()

	f.SetCellValue(sheet, "A1", Title)
	f.SetCellValue(sheet, "A2", generatedLine(generatedAt))

	const headRow = 4
	for i, h := range headers {
		f.SetCellValue(sheet, axis(i, headRow), h)
	}

	for n, p := range products {
		r := headRow + 1 + n
		cells := row(p)
		for i, text := range cells {
			switch i {
			case 2:
				f.SetCellValue(sheet, axis(i, r), p.Quantity)
			case 4:
				f.SetCellValue(sheet, axis(i, r), p.DaysToExpiry)
			default:
				f.SetCellValue(sheet, axis(i, r), text)
			}
		}
	}

	f.SetCellValue(sheet, axis(0, headRow+len(products)+2), totalLine(len(products)))

	f.SetColWidth(sheet, "A", "A", 18)
	f.SetColWidth(sheet, "B", "B", 40)
	f.SetColWidth(sheet, "F", "F", 24)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func axis(col, row int) string {
	return fmt.Sprintf("%s%d", xlsxColumns[col], row)
}
