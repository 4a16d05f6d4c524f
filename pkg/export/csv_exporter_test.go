package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderWritesRowsInHeaderOrder(t *testing.T) {
	data := Dataset{
		Headers: []string{"Employee", "Asset", "Status"},
		Rows: [][]string{
			{"Dana", "a1", "Verified"},
			{"Riley", "a2", "Pending"},
		},
	}

	payload, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Employee,Asset,Status", lines[0])
	assert.Equal(t, "Dana,a1,Verified", lines[1])
	assert.Equal(t, "Riley,a2,Pending", lines[2])
}

func TestCSVRenderPadsShortRows(t *testing.T) {
	data := Dataset{
		Headers: []string{"Employee", "Asset", "Status"},
		Rows:    [][]string{{"Dana"}},
	}

	payload, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Dana,,", lines[1])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	data := Dataset{
		Headers: []string{"Employee", "Status"},
		Rows:    [][]string{{"Dana", "Verified"}},
	}

	payload, err := NewPDFExporter().Render(data, "Q3 Audit")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}
