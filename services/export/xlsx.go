package export

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

var sheetReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// XLSX writes t as a workbook holding a single sheet.
// Row 1 holds the title, row 2 the periods and column A the days.
func XLSX(w io.Writer, sheet string, t Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing workbook")
		}
	}()

	sheet = SheetName(sheet)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating title style")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    cellBorders(),
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    cellBorders(),
	})
	if err != nil {
		return errors.Wrap(err, "creating cell style")
	}
	markStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFE0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    cellBorders(),
	})
	if err != nil {
		return errors.Wrap(err, "creating highlight style")
	}

	lastCol := len(t.Columns) + 1
	lastName, err := excelize.ColumnNumberToName(lastCol)
	if err != nil {
		return errors.Wrap(err, "naming last column")
	}

	set := func(col, row int, value interface{}, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		return f.SetCellStyle(sheet, cell, cell, style)
	}

	if err := set(1, 1, t.Title, titleStyle); err != nil {
		return errors.Wrap(err, "writing title")
	}
	if lastCol > 1 {
		if err := f.MergeCell(sheet, "A1", lastName+"1"); err != nil {
			return errors.Wrap(err, "merging title")
		}
	}

	if err := set(1, 2, "Day", headerStyle); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for c, col := range t.Columns {
		if err := set(c+2, 2, col, headerStyle); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}

	for r, row := range t.Rows {
		label := ""
		if r < len(t.RowLabels) {
			label = t.RowLabels[r]
		}
		if err := set(1, r+3, label, headerStyle); err != nil {
			return errors.Wrap(err, "writing row label")
		}
		lines := 1
		for c, text := range row {
			style := cellStyle
			if t.highlighted(r, c) {
				style = markStyle
			}
			if err := set(c+2, r+3, text, style); err != nil {
				return errors.Wrap(err, "writing cell")
			}
			if n := strings.Count(text, "\n") + 1; n > lines {
				lines = n
			}
		}
		if err := f.SetRowHeight(sheet, r+3, float64(lines)*15+6); err != nil {
			return errors.Wrap(err, "sizing row")
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	if lastCol > 1 {
		if err := f.SetColWidth(sheet, "B", lastName, 22); err != nil {
			return errors.Wrap(err, "sizing columns")
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing xlsx")
	}
	return nil
}

// SheetName makes name usable as a worksheet name.
func SheetName(name string) string {
	name = strings.TrimSpace(sheetReplacer.Replace(name))
	if name == "" {
		return "Timetable"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func cellBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "999999", Style: 1},
		{Type: "top", Color: "999999", Style: 1},
		{Type: "right", Color: "999999", Style: 1},
		{Type: "bottom", Color: "999999", Style: 1},
	}
}
