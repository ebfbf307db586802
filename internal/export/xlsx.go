// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"

	"github.com/apex/log"
	"github.com/xuri/excelize/v2"

	"github.com/staranto/photoctl/internal/result"
)

// SheetName is the worksheet holding the results in every workbook.
const SheetName = "Resultados"

// Workbook renders results as a native xlsx workbook. The header row is
// bold and the confidence column is numeric.
func Workbook(results []result.ProcessingResult) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Debug("failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range results {
		cells := row(r)
		values := make([]any, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		values[confidenceColumn] = ConfidencePercent(r.Confidence)

		cell, err := excelize.CoordinatesToCellName(1, i+2) //nolint:mnd
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err) //nolint:mnd
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
