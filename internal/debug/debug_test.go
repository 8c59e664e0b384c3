package debug

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(false, &buf, FormatText)
	t.Cleanup(func() { InitWriter(false, nil, FormatText) })

	Error("dropped")
	Component("batch").Debug("dropped too")
	assert.False(t, Enabled())
	assert.Empty(t, buf.String())
}

func TestInitWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(true, &buf, FormatJSON)
	t.Cleanup(func() { InitWriter(false, nil, FormatText) })

	Component("merge").Debug("merge step", "step", "Seed")
	assert.True(t, Enabled())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "merge step", rec["msg"])
	assert.Equal(t, "merge", rec["component"])
	assert.Equal(t, "Seed", rec["step"])
	assert.Equal(t, "DEBUG", rec["level"])
}

func TestInitWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(true, &buf, FormatText)
	t.Cleanup(func() { InitWriter(false, nil, FormatText) })

	Info("generation completed", "documents", 2)
	assert.Contains(t, buf.String(), "msg=\"generation completed\"")
	assert.Contains(t, buf.String(), "documents=2")
}
