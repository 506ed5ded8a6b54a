package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// CSVParser parses feed rows from CSV format. The header row supplies
// the feed's native column names.
type CSVParser struct{}

// Parse reads CSV from the reader and returns raw source records.
func (p *CSVParser) Parse(r io.Reader, source entities.Source) ([]entities.SourceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows surface as missing fields, not parse errors

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []entities.SourceRecord
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				fields[col] = row[i]
			}
		}

		records = append(records, entities.SourceRecord{
			Source: source,
			Fields: fields,
			Line:   lineNum,
		})
	}

	return records, nil
}
