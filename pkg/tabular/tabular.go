package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Sheet is the neutral tabular representation exchanged with codecs.
// Rows are not required to be padded to the header width on read; callers
// that need fixed-width rows should use (Sheet).PaddedRow.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// PaddedRow returns row i extended with empty cells to the header width.
func (s Sheet) PaddedRow(i int) []string {
	row := s.Rows[i]
	if len(row) >= len(s.Header) {
		return row
	}
	padded := make([]string, len(s.Header))
	copy(padded, row)
	return padded
}

// Codec encodes and decodes a Sheet for one spreadsheet format.
type Codec interface {
	Format() Format
	Encode(sheet Sheet) ([]byte, error)
	Decode(data []byte) (Sheet, error)
}

// ForFormat returns the codec for the given format.
func ForFormat(f Format) (Codec, error) {
	switch f {
	case FormatXLSX:
		return NewXLSXCodec(), nil
	case FormatCSV:
		return NewCSVCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported tabular format %q", f)
	}
}

// ForFilename picks a codec by file extension. Legacy ".xls" files are
// routed to the XLSX codec; genuinely old binary workbooks fail on decode.
func ForFilename(name string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return NewXLSXCodec(), nil
	case ".csv":
		return NewCSVCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported spreadsheet file %q", name)
	}
}
