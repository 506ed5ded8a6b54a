// Package parsers provides parsers for importing feed rows from
// various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// Parser reads one feed file into raw source records. Records keep the
// feed's native column names; the normalizer owns the schema mapping.
type Parser interface {
	Parse(r io.Reader, source entities.Source) ([]entities.SourceRecord, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
