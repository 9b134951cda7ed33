package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// spreadsheetText collects string-typed cells across all sheets in workbook
// order. Numbers, dates, booleans and formulas are skipped.
func spreadsheetText(ctx context.Context, data []byte) ([]string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	var parts []string
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for r, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for c, value := range row {
				if value == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				cellType, err := book.GetCellType(sheet, cell)
				if err != nil {
					return nil, fmt.Errorf("cell type %s!%s: %w", sheet, cell, err)
				}
				if cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
					parts = append(parts, value)
				}
			}
		}
	}
	return parts, nil
}
