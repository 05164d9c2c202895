package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSheet() Sheet {
	return Sheet{
		Header: []string{"update", "login", "status"},
		Rows: [][]string{
			{"0", "student1", "passed"},
			{"1", "student2", "failed"},
		},
	}
}

func TestCSVCodecRoundTrip(t *testing.T) {
	codec := NewCSVCodec()
	data, err := codec.Encode(sampleSheet())
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sampleSheet().Header, decoded.Header)
	assert.Equal(t, sampleSheet().Rows, decoded.Rows)
}

func TestXLSXCodecRoundTrip(t *testing.T) {
	codec := NewXLSXCodec()
	data, err := codec.Encode(sampleSheet())
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sampleSheet().Header, decoded.Header)
	assert.Equal(t, sampleSheet().Rows, decoded.Rows)
}

func TestCSVCodecToleratesShortRows(t *testing.T) {
	codec := NewCSVCodec()
	decoded, err := codec.Decode([]byte("update,login,status\n1,student1\n"))
	require.NoError(t, err)
	require.Len(t, decoded.Rows, 1)
	assert.Equal(t, []string{"1", "student1", ""}, decoded.PaddedRow(0))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := NewXLSXCodec().Decode([]byte("definitely not a zip container"))
	assert.Error(t, err)
}

func TestForFilename(t *testing.T) {
	for name, want := range map[string]Format{
		"status.xlsx": FormatXLSX,
		"status.xls":  FormatXLSX,
		"STATUS.CSV":  FormatCSV,
	} {
		codec, err := ForFilename(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, codec.Format(), name)
	}

	_, err := ForFilename("status.pdf")
	assert.Error(t, err)
}

func TestEncodeRequiresHeader(t *testing.T) {
	_, err := NewCSVCodec().Encode(Sheet{})
	assert.Error(t, err)
	_, err = NewXLSXCodec().Encode(Sheet{})
	assert.Error(t, err)
}
