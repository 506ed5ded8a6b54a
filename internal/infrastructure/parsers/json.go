package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// JSONParser parses feed rows from a JSON array of flat objects.
type JSONParser struct{}

// Parse reads JSON from the reader and returns raw source records.
func (p *JSONParser) Parse(r io.Reader, source entities.Source) ([]entities.SourceRecord, error) {
	var rows []map[string]any

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	records := make([]entities.SourceRecord, 0, len(rows))
	for i, row := range rows {
		fields := make(map[string]string, len(row))
		for key, value := range row {
			fields[key] = valueToString(value)
		}
		records = append(records, entities.SourceRecord{
			Source: source,
			Fields: fields,
			Line:   i + 1, // array index, 1-indexed
		})
	}

	return records, nil
}

// valueToString flattens a JSON value to its column string form.
func valueToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
