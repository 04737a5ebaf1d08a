package main

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
)

// concurrencyStats holds "5%-avg-min", median, and "5%-avg-max" for one concurrency level.
type concurrencyStats struct {
	concurrency int
	x           float64 // plotted position
	min         float64
	median      float64
	max         float64
}

// statsPoints implements XYer and YErrorer, so lines and error bars share it.
type statsPoints []concurrencyStats

func (s statsPoints) Len() int                { return len(s) }
func (s statsPoints) XY(i int) (x, y float64) { return s[i].x, s[i].median }
func (s statsPoints) YError(i int) (low, high float64) {
	return s[i].median - s[i].min, s[i].max - s[i].median
}

// categoryTicks implements a categorical X axis: 0,1,2,... => concurrency labels.
type categoryTicks struct {
	positions []float64
	labels    []string
}

func newCategoryTicks(levels []int) categoryTicks {
	ct := categoryTicks{}
	for i, c := range levels {
		ct.positions = append(ct.positions, float64(i))
		ct.labels = append(ct.labels, strconv.Itoa(c))
	}
	return ct
}

func (ct categoryTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, pos := range ct.positions {
		if pos >= min && pos <= max {
			ticks = append(ticks, plot.Tick{Value: pos, Label: ct.labels[i]})
		}
	}
	return ticks
}

// buildStats summarises each concurrency level. Input slices are sorted in place.
func buildStats(byConcurrency map[int][]float64) []concurrencyStats {
	var out []concurrencyStats
	for c, vals := range byConcurrency {
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		out = append(out, concurrencyStats{
			concurrency: c,
			min:         averageOfRange(vals, 0.0, 0.05),
			median:      median(vals),
			max:         averageOfRange(vals, 0.95, 1.0),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].concurrency < out[j].concurrency })
	return out
}

// overheadRatios divides the checked median by the unchecked median for every
// concurrency level both variants measured.
func overheadRatios(checked, unchecked map[int][]float64) map[int]float64 {
	ratios := make(map[int]float64)
	for c, on := range checked {
		off, ok := unchecked[c]
		if !ok || len(on) == 0 || len(off) == 0 {
			continue
		}
		a := append([]float64(nil), on...)
		b := append([]float64(nil), off...)
		sort.Float64s(a)
		sort.Float64s(b)
		if mb := median(b); mb > 0 {
			ratios[c] = median(a) / mb
		}
	}
	return ratios
}

// averageOfRange returns the average of sortedVals in [startFrac, endFrac) of
// its length, falling back to the median when the slice is too small.
func averageOfRange(sortedVals []float64, startFrac, endFrac float64) float64 {
	n := len(sortedVals)
	if n == 0 {
		return 0
	}
	start := int(float64(n) * startFrac)
	end := int(float64(n) * endFrac)
	if end > n {
		end = n
	}
	if start >= end {
		return median(sortedVals)
	}
	sum := 0.0
	for _, v := range sortedVals[start:end] {
		sum += v
	}
	return sum / float64(end-start)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return 0.5 * (sorted[mid-1] + sorted[mid])
}

// formatNs formats a nanoseconds value in ns, µs, ms, or s.
func formatNs(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.0fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.1fµs", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.1fms", ns/1e6)
	default:
		return fmt.Sprintf("%.2fs", ns/1e9)
	}
}
