package history

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	points := []Point{
		{Time: base, Total: 1299, Kind: KindAuto},
		{Time: base.Add(time.Hour), Total: 1250, Kind: KindContrib},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "trendyol:trendyol.com/x-p-1", points, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{exportSheet}, f.GetSheetList())

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Zaman", "Toplam (TL)", "Kaynak"}, rows[0])
	assert.Equal(t, "1299", rows[1][1])
	assert.Equal(t, "auto", rows[1][2])
	assert.Equal(t, "1250", rows[2][1])
	assert.Equal(t, "contrib", rows[2][2])

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "trendyol:trendyol.com/x-p-1", props.Title)
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "k", nil, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
