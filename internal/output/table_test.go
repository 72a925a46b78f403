package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	t.Parallel()

	table := NewTable("NAME", "PRIORITY", "STATUS")
	table.AddRow("local-signer", "10", "available")
	table.AddRow("infura", "80", "active")

	out := table.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "NAME          PRIORITY  STATUS", lines[0])
	assert.Equal(t, "------------  --------  ---------", lines[1])
	assert.Contains(t, lines[2], "local-signer")
	assert.Contains(t, lines[3], "infura")
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	table := NewTable()
	assert.Empty(t, table.String())
}

func TestTableRaggedRows(t *testing.T) {
	t.Parallel()

	table := NewTable("A", "B")
	table.AddRow("one")
	table.AddRow("two", "three", "four")

	out := table.String()
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "four")
}
