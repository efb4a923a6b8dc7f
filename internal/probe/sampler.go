package probe

import (
	"fmt"
	"math"
	"strconv"
)

const bytesPerMB = 1024 * 1024

// Report is the average heap usage of one completed window.
type Report struct {
	Iteration int
	Average   float64 // bytes
	Delta     float64 // bytes, against the previous window
}

// String renders the report line, rounding to two decimals in MB.
// Non-negative deltas carry a leading '+'.
func (r Report) String() string {
	sign := ""
	if r.Delta >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("Average memory usage after %d: %s MB (%s%s MB)",
		r.Iteration, formatFloat(round2(r.Average/bytesPerMB)), sign, formatFloat(round2(r.Delta/bytesPerMB)))
}

// Sampler keeps a running sum of heap readings and closes a window every
// Window iterations.
//
// The reading taken at iteration 0 is carried into the first window, and the
// first window only seeds the baseline: it is never reported because there is
// nothing to compare it with.
type Sampler struct {
	window      int
	sum         float64
	lastAverage float64
}

func NewSampler(window int) *Sampler {
	return &Sampler{window: window}
}

// Add records the reading for iteration i and returns a report when i
// closes a window other than the first.
func (s *Sampler) Add(i int, heapBytes uint64) (Report, bool) {
	s.sum += float64(heapBytes)
	if i%s.window != 0 || i == 0 {
		return Report{}, false
	}

	average := s.sum / float64(s.window)
	diff := average - s.lastAverage
	s.lastAverage = average
	s.sum = 0

	if i == s.window {
		return Report{}, false
	}
	return Report{Iteration: i, Average: average, Delta: diff}, true
}

func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// FormatMB renders bytes as MB without rounding.
func FormatMB(heapBytes uint64) string {
	return formatFloat(float64(heapBytes) / bytesPerMB)
}
