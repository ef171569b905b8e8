// Package workbook renders board reports as Excel workbooks.
package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/FangWolf96/corepoint-ingest/internal/board"
)

const (
	sheetScope  = "Scope"
	sheetLane   = "Lane"
	sheetQuoted = "Quoted Prices"
	sheetLabels = "All Labels"
)

// Build renders the report into an .xlsx file with one sheet per section.
func Build(rep *board.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeScopeSheet(f, rep.ScopeRows); err != nil {
		return nil, err
	}
	if err := writeLaneSheet(f, rep.LaneRows); err != nil {
		return nil, err
	}
	if err := writeQuotedSheet(f, rep.Quoted); err != nil {
		return nil, err
	}
	if len(rep.LabelRows) > 0 {
		if err := writeLabelSheet(f, rep.LabelRows); err != nil {
			return nil, err
		}
	}

	// excelize starts with a default "Sheet1"; the report sheets replace it.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(sheetScope)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeScopeSheet(f *excelize.File, rows []board.ScopeRow) error {
	if _, err := f.NewSheet(sheetScope); err != nil {
		return err
	}
	if err := writeRow(f, sheetScope, 1, []interface{}{"Scope", "Count", "Average Age (days)"}); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, sheetScope, i+2, []interface{}{r.Scope, r.Count, r.AvgAge}); err != nil {
			return err
		}
	}
	return nil
}

func writeLaneSheet(f *excelize.File, rows []board.LaneRow) error {
	if _, err := f.NewSheet(sheetLane); err != nil {
		return err
	}
	if err := writeRow(f, sheetLane, 1, []interface{}{"Lane", "Count", "Average Age (days)"}); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, sheetLane, i+2, []interface{}{r.Lane, r.Count, r.AvgAge}); err != nil {
			return err
		}
	}
	return nil
}

func writeQuotedSheet(f *excelize.File, q board.QuotedStats) error {
	if _, err := f.NewSheet(sheetQuoted); err != nil {
		return err
	}
	header := []interface{}{
		"Total Value Count", "Total Value", "Average Value",
		"Total Won Count", "Total Won", "Average Won",
		"Total Lost Count", "Total Lost", "Average Lost",
	}
	if err := writeRow(f, sheetQuoted, 1, header); err != nil {
		return err
	}
	values := []interface{}{
		q.PipelineCount, q.PipelineTotal, q.PipelineAvg,
		q.WonCount, q.WonTotal, q.WonAvg,
		q.LostCount, q.LostTotal, q.LostAvg,
	}
	return writeRow(f, sheetQuoted, 2, values)
}

func writeLabelSheet(f *excelize.File, rows []board.LabelRow) error {
	if _, err := f.NewSheet(sheetLabels); err != nil {
		return err
	}
	if err := writeRow(f, sheetLabels, 1, []interface{}{"Label", "Count", "Average Age (days)"}); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, sheetLabels, i+2, []interface{}{r.Label, r.Count, r.AvgAge}); err != nil {
			return err
		}
	}
	return nil
}
