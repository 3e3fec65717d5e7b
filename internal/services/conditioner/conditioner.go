package conditioner

import (
	"math"
	"sort"

	domsvc "AprSight/internal/domain/service"
)

const (
	// Median absolute deviation to standard deviation under normality.
	madScale = 1.4826

	shortWindow   = 5  // micro-glitch window, +-2 centered
	longWindow    = 21 // structural window, +-10 centered
	zThreshold    = 3.0
	slopeEpsilon  = 1e-6
	maxNoiseSlope = 0.5 // pct points per 2 minutes
)

// Conditioner removes data glitches from raw APR series while preserving
// genuine regime shifts. Two stages: a Hampel-style micro-glitch filter,
// then a structural spike validator that only discards spikes with no
// local momentum.
type Conditioner struct{}

func New() *Conditioner {
	return &Conditioner{}
}

// Clean returns a series of identical length with flagged samples
// replaced. The input is not modified.
func (c *Conditioner) Clean(series []float64) []float64 {
	if len(series) == 0 {
		return nil
	}

	stage1 := hampelFilter(series)
	stage2 := validateSpikes(stage1)
	fillGaps(stage2)
	return stage2
}

// hampelFilter replaces samples deviating more than 3 scaled MADs from
// the centered rolling median. Samples without a full window are kept.
func hampelFilter(series []float64) []float64 {
	out := make([]float64, len(series))
	copy(out, series)

	half := shortWindow / 2
	for i := half; i < len(series)-half; i++ {
		window := series[i-half : i+half+1]
		med := median(window)

		devs := make([]float64, len(window))
		for j, v := range window {
			devs[j] = math.Abs(v - med)
		}
		mad := median(devs) * madScale

		if math.Abs(series[i]-med) > zThreshold*mad {
			out[i] = med
		}
	}
	return out
}

// validateSpikes confirms structural outliers as noise only when the
// local slope is flat. A spike with momentum behind it is a genuine
// move, not a glitch, and is left untouched.
func validateSpikes(series []float64) []float64 {
	out := make([]float64, len(series))
	copy(out, series)

	half := longWindow / 2
	for i := half; i < len(series)-half; i++ {
		window := series[i-half : i+half+1]
		med := median(window)
		std := stddev(window)

		z := (series[i] - med) / (std + slopeEpsilon)
		if math.Abs(z) <= zThreshold {
			continue
		}

		// Noise teleports: a real event ramps up over adjacent samples.
		if i < 2 {
			continue
		}
		localSlope := math.Abs(series[i] - series[i-2])
		if localSlope < maxNoiseSlope {
			out[i] = med
		}
	}
	return out
}

// fillGaps forward-fills then back-fills non-finite entries in place.
func fillGaps(series []float64) {
	last := math.NaN()
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			series[i] = last
		} else {
			last = v
		}
	}
	next := math.NaN()
	for i := len(series) - 1; i >= 0; i-- {
		if math.IsNaN(series[i]) {
			series[i] = next
		} else {
			next = series[i]
		}
	}
}

func median(window []float64) float64 {
	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func stddev(window []float64) float64 {
	n := float64(len(window))
	if n < 2 {
		return 0
	}
	var sum, sum2 float64
	for _, v := range window {
		sum += v
		sum2 += v * v
	}
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

var _ domsvc.SignalConditioner = (*Conditioner)(nil)
