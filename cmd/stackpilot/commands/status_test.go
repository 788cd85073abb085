package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cmd := Status()

	require.NotNil(t, cmd)
	assert.Equal(t, "status", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestStatus_Flags(t *testing.T) {
	cmd := Status()

	require.NotNil(t, cmd.Flags().Lookup("json"))
	watch := cmd.Flags().Lookup("watch")
	require.NotNil(t, watch)
	assert.Equal(t, "w", watch.Shorthand)
}

func TestDoctor(t *testing.T) {
	cmd := Doctor()

	require.NotNil(t, cmd)
	assert.Equal(t, "doctor", cmd.Use)
	require.NotNil(t, cmd.Flags().Lookup("json"))
}

func TestReset(t *testing.T) {
	cmd := Reset()

	require.NotNil(t, cmd)
	assert.Equal(t, "reset", cmd.Use)
	force := cmd.Flags().Lookup("force")
	require.NotNil(t, force)
	assert.Equal(t, "f", force.Shorthand)
}
