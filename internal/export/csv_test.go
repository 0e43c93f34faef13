package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	table := &Table{Name: "clients", Header: []string{"name", "email"}}
	table.Append("Maria, Silva", "maria@example.com")
	table.Append("João", "")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, out, "name,email\n")
	assert.Contains(t, out, "\"Maria, Silva\",maria@example.com\n")
	assert.Contains(t, out, "João,\n")
}

func TestWriteCSV_RejectsRaggedRows(t *testing.T) {
	table := &Table{Header: []string{"a", "b"}}
	table.Append("only-one")

	assert.Error(t, WriteCSV(&bytes.Buffer{}, table))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "10.50", Money(decimal.RequireFromString("10.5")))
	assert.Equal(t, "", Date(nil))
	d := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-04", Date(&d))
	assert.Equal(t, "clients-20260304.csv", (&Table{Name: "clients"}).FileName(d))
	assert.Equal(t, "yes", Bool(true))
}
