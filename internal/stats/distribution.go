package stats

import "github.com/influxdata/tdigest"

// Distribution accumulates samples into a t-digest so percentiles can be
// reported without retaining the raw sample set.
type Distribution struct {
	td    *tdigest.TDigest
	count int
}

func NewDistribution() *Distribution {
	return &Distribution{td: tdigest.NewWithCompression(50)}
}

func (d *Distribution) Add(sample float64) {
	if sample < 0 {
		return
	}
	d.td.Add(sample, 1)
	d.count++
}

func (d *Distribution) Count() int { return d.count }

// Percentile returns the p-th percentile (0 < p <= 100). Zero when empty.
func (d *Distribution) Percentile(p float64) float64 {
	if d.count == 0 || p <= 0 || p > 100 {
		return 0
	}
	return d.td.Quantile(p / 100)
}

func (d *Distribution) Median() float64 { return d.Percentile(50) }
