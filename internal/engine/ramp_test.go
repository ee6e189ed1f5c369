package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRampReachesTargetInExactSteps(t *testing.T) {
	r := Ramp{Steps: 20, Interval: time.Millisecond}

	var published []float64
	r.Run(context.Background(), 0, 100, func(v float64) { published = append(published, v) })

	// Step size 100/20 = 5: nineteen intermediate ticks, then the snap.
	require.Len(t, published, 20)
	assert.Equal(t, 100.0, published[len(published)-1])
	for i, v := range published {
		assert.LessOrEqual(t, v, 100.0, "tick %d overshot", i)
		if i > 0 {
			assert.Greater(t, v, published[i-1])
		}
	}
}

func TestRampSnapsExactlyToTarget(t *testing.T) {
	r := Ramp{Steps: 3, Interval: time.Millisecond}

	var last float64
	// 17 does not divide evenly by 3; the final value must still be exact.
	r.Run(context.Background(), 0, 17, func(v float64) { last = v })
	assert.Equal(t, 17.0, last)
}

func TestRampDownward(t *testing.T) {
	r := Ramp{Steps: 4, Interval: time.Millisecond}

	var published []float64
	r.Run(context.Background(), 80, 40, func(v float64) { published = append(published, v) })
	require.NotEmpty(t, published)
	assert.Equal(t, 40.0, published[len(published)-1])
	for _, v := range published {
		assert.GreaterOrEqual(t, v, 40.0)
	}
}

func TestRampNoOpWhenAlreadyAtTarget(t *testing.T) {
	r := Ramp{Steps: 20, Interval: time.Hour}

	var published []float64
	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), 55, 55, func(v float64) { published = append(published, v) })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ramp did not return immediately for from == target")
	}
	assert.Equal(t, []float64{55}, published)
}

func TestRampCancelSnapsToTarget(t *testing.T) {
	r := Ramp{Steps: 1000, Interval: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var last float64
	r.Run(ctx, 0, 100, func(v float64) { last = v })
	// Cancellation must not leave the display stranded below the final value.
	assert.Equal(t, 100.0, last)
}
