// Package report produces an optional XLSX summary of a PDF run, one row per
// page. It is a side artifact for whoever audits extraction quality; nothing
// in the pipeline consumes it.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pagetext/pagetext/internal/pipeline"
)

const sheet = "Pages"

// BuildXLSX returns an XLSX workbook (as bytes) summarizing the page results
// of one PDF run.
func BuildXLSX(results []pipeline.PageResult) ([]byte, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Page", "Characters", "Confidence", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		write(1, r.Page)
		write(2, len(r.Text))
		write(3, fmt.Sprintf("%.2f", r.Confidence))
		write(4, status)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize report: %w", err)
	}
	return buf.Bytes(), nil
}
