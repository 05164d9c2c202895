package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVCodec encodes sheets as RFC 4180 CSV.
type CSVCodec struct{}

// NewCSVCodec builds a CSV codec.
func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

// Format returns the codec's format identifier.
func (c *CSVCodec) Format() Format {
	return FormatCSV
}

// Encode produces CSV bytes with the header as the first record.
func (c *CSVCodec) Encode(sheet Sheet) ([]byte, error) {
	if len(sheet.Header) == 0 {
		return nil, fmt.Errorf("csv requires at least one header column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(sheet.Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range sheet.Rows {
		record := make([]string, len(sheet.Header))
		copy(record, row)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses CSV bytes into a sheet. Records may vary in width because
// hand-edited files frequently drop trailing cells.
func (c *CSVCodec) Decode(data []byte) (Sheet, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return Sheet{}, fmt.Errorf("csv file is empty")
	}
	return Sheet{Header: records[0], Rows: records[1:]}, nil
}
