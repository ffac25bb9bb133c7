package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

func parseCSV(raw []byte) ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	return parseTable(rows)
}

func parseXLSX(raw []byte) ([]Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	return parseTable(rows)
}

// parseTable reads a header row (City, label...) followed by one row per
// city. Empty cells are skipped.
func parseTable(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	header := rows[0]
	var records []Record
	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		rec := Record{Name: strings.TrimSpace(row[0])}
		for col := 1; col < len(row); col++ {
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", i+2, col+1, err)
			}

			label := strconv.Itoa(col - 1)
			if col < len(header) && strings.TrimSpace(header[col]) != "" {
				label = strings.TrimSpace(header[col])
			}
			rec.Labels = append(rec.Labels, label)
			rec.Values = append(rec.Values, v)
		}
		records = append(records, rec)
	}

	return records, nil
}
