// Package output implements the destinations of a generation run: entity
// files in a chosen format, or ingestion channels.
package output

import (
	"fmt"
	"io"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// Output modes.
const (
	ModeChannel  = "in-memory-channel"
	ModeCSV      = "csv-files"
	ModeColumnar = "columnar-files"
)

// Format serializes one buffer of records into a single file.
type Format interface {
	Extension() string
	WriteProducts(w io.Writer, recs []models.Product) error
	WriteTrades(w io.Writer, recs []models.Trade) error
	WriteRisks(w io.Writer, recs []models.Risk) error
}

// FormatFor returns the file format for a file output mode.
func FormatFor(mode string, separator, vectorSeparator rune) (Format, error) {
	switch mode {
	case ModeCSV:
		return NewCSVFormat(separator, vectorSeparator), nil
	case ModeColumnar:
		return NewParquetFormat(), nil
	default:
		return nil, fmt.Errorf("no file format for output mode %q", mode)
	}
}
