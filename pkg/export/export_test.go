package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title: "Applications",
		Columns: []Column{
			{Key: "student", Title: "Student", Width: 2},
			{Key: "status", Title: "Status"},
		},
		Rows: []map[string]string{
			{"student": "Ada, Lovelace", "status": "pending"},
			{"student": "Alan Turing", "status": "accepted"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Status", lines[0])
	assert.Equal(t, `"Ada, Lovelace",pending`, lines[1])
}

func TestCSVExporterEscapesFormulas(t *testing.T) {
	table := sampleTable()
	table.Rows = []map[string]string{{"student": "=HYPERLINK(\"http://x\")", "status": "-1"}}

	out, err := NewCSVExporter(WithBOM()).Render(table)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	lines := strings.Split(strings.TrimSpace(string(out[len(utf8BOM):])), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"'=HYPERLINK(""http://x"")",'-1`, lines[1])
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, map[string]string{"student": strings.Repeat("very long name ", 40), "status": "rejected"})

	out, err := NewPDFExporter().Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsAreProportional(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	assert.InDelta(t, pdfPageWidth*2/3, widths[0], 0.001)
	assert.InDelta(t, pdfPageWidth/3, widths[1], 0.001)
}
