// Package structureddata reads workbook/spreadsheet inputs directly into
// page-equivalent text, bypassing rasterization and OCR entirely.
package structureddata

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/adverant/zerox/internal/pipelineerr"
)

// SupportedExtensions lists the extensions this reader accepts. Legacy
// ".xls" is deliberately excluded: excelize cannot read the legacy OLE2
// format, and this implementation rejects it outright rather than attempt
// a lossy read (see DESIGN.md).
var SupportedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// SheetPage is one worksheet rendered as page-equivalent text.
type SheetPage struct {
	SheetName string
	Content   string
}

// Read opens the workbook at path and returns one SheetPage per sheet, in
// workbook sheet order.
func Read(path, extension string) ([]SheetPage, error) {
	if extension == ".xls" {
		return nil, pipelineerr.NewAcquisitionError(path, fmt.Errorf("legacy .xls workbooks are not supported; convert to .xlsx"))
	}
	if !SupportedExtensions[extension] {
		return nil, pipelineerr.NewAcquisitionError(path, fmt.Errorf("unsupported structured-data extension %q", extension))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, pipelineerr.NewAcquisitionError(path, fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	pages := make([]SheetPage, 0, len(sheets))

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, pipelineerr.NewAcquisitionError(path, fmt.Errorf("read sheet %q: %w", sheet, err))
		}

		var sb strings.Builder
		sb.WriteString("# ")
		sb.WriteString(sheet)
		sb.WriteString("\n\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}

		pages = append(pages, SheetPage{SheetName: sheet, Content: sb.String()})
	}

	return pages, nil
}

// IsStructuredDataExtension reports whether extension should bypass
// rasterization entirely.
func IsStructuredDataExtension(extension string) bool {
	return SupportedExtensions[extension] || extension == ".xls"
}
