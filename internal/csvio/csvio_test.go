package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

func TestRead_BasicCSV(t *testing.T) {
	input := "fecha,cliente,importe\n2020-01-10,ACME,\"10,50\"\n2020-01-11,Globex,5.00\n"

	tbl, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"fecha", "cliente", "importe"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "ACME", tbl.Cell(0, "cliente"))
	assert.Equal(t, "10,50", tbl.Cell(0, "importe"))
}

func TestRead_EmptyCellsBecomeMissing(t *testing.T) {
	input := "a,b\n1,\n,2\n"

	tbl, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	assert.Nil(t, tbl.Cell(0, "b"))
	assert.Nil(t, tbl.Cell(1, "a"))
	assert.Equal(t, "2", tbl.Cell(1, "b"))
}

func TestRead_RaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n"

	tbl, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "2", tbl.Cell(0, "b"))
	assert.Nil(t, tbl.Cell(0, "c"))
}

func TestRead_Latin1Fallback(t *testing.T) {
	// "año,señor" in Latin-1: 0xF1 is ñ, invalid as UTF-8.
	input := []byte{'a', 0xF1, 'o', ',', 'x', '\n', 's', 'e', 0xF1, 'o', 'r', ',', '1', '\n'}

	tbl, err := Read(bytes.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"año", "x"}, tbl.Columns())
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "señor", tbl.Cell(0, "año"))
}

func TestRead_BOMStripped(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n1,2\n")...)

	tbl, err := Read(bytes.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
}

func TestRead_Empty(t *testing.T) {
	tbl, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Columns())
}

func TestWrite_CanonicalFormats(t *testing.T) {
	tbl := table.New("date", "partner", "amount", "ingested_at", "n")
	tbl.Append(table.Row{
		"date":        time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC),
		"partner":     "ACME",
		"amount":      1234.56,
		"ingested_at": "2020-01-10T12:00:00Z",
		"n":           3,
	})
	tbl.Append(table.Row{"partner": "Globex"})

	data, err := Encode(tbl)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,partner,amount,ingested_at,n", lines[0])
	assert.Equal(t, "2020-01-10,ACME,1234.56,2020-01-10T12:00:00Z,3", lines[1])
	assert.Equal(t, ",Globex,,,", lines[2])
}

func TestRoundTrip(t *testing.T) {
	tbl := table.New("date", "partner", "amount")
	tbl.Append(table.Row{
		"date":    time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC),
		"partner": "ACME",
		"amount":  99.95,
	})

	data, err := Encode(tbl)
	require.NoError(t, err)

	back, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, 1, back.Len())
	assert.Equal(t, "2021-06-15", back.Cell(0, "date"))
	assert.Equal(t, "ACME", back.Cell(0, "partner"))
	assert.Equal(t, "99.95", back.Cell(0, "amount"))
}
