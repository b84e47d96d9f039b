package acker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectOperator ensures hostname and username are detected and non-empty.
func TestDetectOperator(t *testing.T) {
	t.Parallel()

	op, err := DetectOperator()
	require.NoError(t, err)
	require.NotEmpty(t, op.Hostname)
	require.NotEmpty(t, op.Username)
}
