package tabular

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// XLSXCodec encodes sheets as Office Open XML workbooks via excelize.
type XLSXCodec struct{}

// NewXLSXCodec builds an XLSX codec.
func NewXLSXCodec() *XLSXCodec {
	return &XLSXCodec{}
}

// Format returns the codec's format identifier.
func (c *XLSXCodec) Format() Format {
	return FormatXLSX
}

// Encode writes the sheet into the first worksheet of a new workbook.
func (c *XLSXCodec) Encode(sheet Sheet) ([]byte, error) {
	if len(sheet.Header) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header column")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, 1, sheet.Header); err != nil {
		return nil, err
	}
	for i, row := range sheet.Rows {
		record := make([]string, len(sheet.Header))
		copy(record, row)
		if err := writeRow(f, i+2, record); err != nil {
			return nil, err
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads the first worksheet of the workbook.
func (c *XLSXCodec) Decode(data []byte) (Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Sheet{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Sheet{}, fmt.Errorf("xlsx contains no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Sheet{}, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return Sheet{}, fmt.Errorf("xlsx worksheet is empty")
	}

	return Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("xlsx coordinates: %w", err)
	}
	values := make([]interface{}, len(cells))
	for i, v := range cells {
		values[i] = v
	}
	if err := f.SetSheetRow(defaultSheetName, cell, &values); err != nil {
		return fmt.Errorf("write xlsx row %d: %w", rowNum, err)
	}
	return nil
}
