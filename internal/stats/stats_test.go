package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, 21.0, Average([]float64{20, 22, 21, 19, 23}))
	assert.Equal(t, 0.0, Average([]float64{}))
}

func TestRange(t *testing.T) {
	assert.Equal(t, 4.0, Range([]float64{20, 22, 21, 19, 23}))
	// A single sample has no spread to report.
	assert.Equal(t, 0.0, Range([]float64{42}))
	assert.Equal(t, 0.0, Range([]float64{}))
}

func TestAverageWithinBounds(t *testing.T) {
	samples := []float64{20, 22, 21, 19, 23}
	min, max := Bounds(samples)
	avg := Average(samples)
	if avg < min || avg > max {
		t.Fatalf("average %f outside [%f, %f]", avg, min, max)
	}
}

func TestFixedTrimmedMeanDropsOnePerSide(t *testing.T) {
	// One congested batch (10) and one anomalously fast batch (100) must not
	// drag the estimate; the naive mean would be 40.67.
	assert.Equal(t, 12.0, FixedTrimmedMean([]float64{10, 12, 100}))
}

func TestFixedTrimmedMeanSmallSets(t *testing.T) {
	assert.Equal(t, 60.0, FixedTrimmedMean([]float64{50, 70}))
	assert.Equal(t, 55.0, FixedTrimmedMean([]float64{55}))
	assert.Equal(t, 0.0, FixedTrimmedMean([]float64{}))
}

func TestFixedTrimmedMeanLargeSetTrimsExactlyOnePerSide(t *testing.T) {
	// The trim stays at one sample per side even for many samples; it is
	// deliberately not proportional to the set size.
	samples := []float64{1, 50, 50, 50, 50, 50, 50, 50, 50, 1000}
	assert.Equal(t, 50.0, FixedTrimmedMean(samples))

	// With two extremes on one side, only one of them is dropped.
	assert.InDelta(t, (2.0+50+50+50)/4, FixedTrimmedMean([]float64{1, 2, 50, 50, 50, 1000}), 1e-9)
}

func TestFixedTrimmedMeanDoesNotMutateInput(t *testing.T) {
	samples := []float64{100, 10, 12}
	_ = FixedTrimmedMean(samples)
	assert.Equal(t, []float64{100, 10, 12}, samples)
}

func TestDistributionPercentiles(t *testing.T) {
	d := NewDistribution()
	for i := 1; i <= 100; i++ {
		d.Add(float64(i))
	}
	assert.Equal(t, 100, d.Count())
	assert.InDelta(t, 50.0, d.Median(), 2.0)
	assert.InDelta(t, 95.0, d.Percentile(95), 2.0)
}

func TestDistributionEmpty(t *testing.T) {
	d := NewDistribution()
	assert.Equal(t, 0.0, d.Median())
	assert.Equal(t, 0, d.Count())
}
