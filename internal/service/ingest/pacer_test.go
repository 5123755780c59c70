package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatePacerFirstCallImmediate(t *testing.T) {
	p := NewRatePacer(time.Hour)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRatePacerBlocksSecondCall(t *testing.T) {
	p := NewRatePacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Wait(ctx))
}

func TestRatePacerZeroIntervalDisabled(t *testing.T) {
	p := NewRatePacer(0)

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
}
