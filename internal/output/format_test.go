package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
	}{
		{in: "text", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "JSON", want: FormatJSON},
		{in: "auto", want: FormatAuto},
		{in: "", want: FormatAuto},
		{in: "yaml", want: FormatAuto},
	}

	for _, tc := range tests {
		t.Run("parse "+tc.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ParseFormat(tc.in))
		})
	}
}

func TestDetectFormatExplicitWins(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Equal(t, FormatText, DetectFormat(&buf, FormatText))
	assert.Equal(t, FormatJSON, DetectFormat(&buf, FormatJSON))
	// Non-TTY writers auto-detect as JSON
	assert.Equal(t, FormatJSON, DetectFormat(&buf, FormatAuto))
}

func TestFormatterPrintJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := NewFormatter(FormatJSON, &buf)
	require.NoError(t, f.Print(map[string]string{"key": "value"}))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "value", decoded["key"])
}

func TestFormatErrorTextRendersDetailsSorted(t *testing.T) {
	t.Parallel()

	err := havenerr.WithSuggestion(havenerr.WithDetails(havenerr.ErrUnknownProvider, map[string]string{
		"zebra": "z",
		"alpha": "a",
	}), "try haven provider list")

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, err, FormatText))

	out := buf.String()
	assert.Contains(t, out, "Error: provider is not registered")
	assert.Contains(t, out, "Suggestion: try haven provider list")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("alpha")), bytes.Index(buf.Bytes(), []byte("zebra")))
}

func TestFormatErrorJSONShape(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, havenerr.ErrKeyNotFound, FormatJSON))

	var decoded ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "KEY_NOT_FOUND", decoded.Error.Code)
	assert.Equal(t, havenerr.ExitNotFound, decoded.Error.ExitCode)
}

func TestFormatErrorPlainError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatError(&buf, errors.New("boom"), FormatText))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatSuccess(&buf, "done", FormatText))
	assert.Equal(t, "done\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatSuccess(&buf, "done", FormatJSON))
	assert.Contains(t, buf.String(), `"status": "success"`)
}
