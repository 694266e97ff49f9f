package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterEscapesFormulas(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"id", "description"},
		Rows: []map[string]string{
			{"id": "p-1", "description": "=HYPERLINK(\"x\")"},
			{"id": "p-2", "description": "plain"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "id,description\np-1,\"'=HYPERLINK(\"\"x\"\")\"\np-2,plain\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Document{
		Title:  "Quote",
		Fields: []Field{{Label: "Listing", Value: "Portrait"}},
		Table: Dataset{
			Headers: []string{"Item", "Price"},
			Rows:    []map[string]string{{"Item": "Base", "Price": "1000"}},
		},
		Footer: "valid for seven days",
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Document{})
	require.Error(t, err)
}
