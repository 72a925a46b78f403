package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	setupCLITest(t)

	cmd, buf := testCommand(t)
	require.NoError(t, runVersion(cmd, nil))
	assert.Contains(t, buf.String(), "haven")
	assert.Contains(t, buf.String(), "go:")
}
