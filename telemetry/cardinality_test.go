package telemetry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCardinalityGuard_AdmitsUpToLimit(t *testing.T) {
	g := NewCardinalityGuard()
	for i := 0; i < 4; i++ {
		require.NoError(t, g.Check(DimensionMemoryOpClass, fmt.Sprintf("op-%d", i)))
	}
	require.Equal(t, 4, g.Count(DimensionMemoryOpClass))

	err := g.Check(DimensionMemoryOpClass, "op-5")
	require.Error(t, err)
	var exceeded *ErrCardinalityExceeded
	require.ErrorAs(t, err, &exceeded)
	require.Equal(t, DimensionMemoryOpClass, exceeded.Dimension)
	require.Equal(t, 4, exceeded.Limit)
}

func TestCardinalityGuard_RepeatedValueNeverRejected(t *testing.T) {
	g := NewCardinalityGuard()
	for i := 0; i < 30; i++ {
		require.NoError(t, g.Check(DimensionToolName, "text_uppercase"))
	}
	require.Equal(t, 1, g.Count(DimensionToolName))
}

func TestCardinalityGuard_DimensionsIndependent(t *testing.T) {
	g := NewCardinalityGuard()
	require.NoError(t, g.Check(DimensionHTTPRoute, "/tasks"))
	require.NoError(t, g.Check(DimensionErrorKind, "timeout"))
	require.Equal(t, 1, g.Count(DimensionHTTPRoute))
	require.Equal(t, 1, g.Count(DimensionErrorKind))
}
