package score

import (
	"context"
	"math"
)

// Rubric dimensions an answer is scored on.
const (
	Knowledge = "knowledge"
	Awareness = "awareness"
	Examples  = "examples"
)

// Bounds of every sub-score.
const (
	Min = 0.0
	Max = 5.0
)

// Dimensions lists the rubric dimensions in response order.
var Dimensions = []string{Knowledge, Awareness, Examples}

// Score maps a rubric dimension to its value.
// Rules use the same type to describe deltas.
type Score map[string]float64

// Scorer turns a sanitized answer into a sub-score per dimension.
type Scorer interface {
	Score(ctx context.Context, text string) (Score, error)
}

// Clamp bounds v to [lo, hi]. NaN is treated as lo.
func Clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// Mean returns the average over Dimensions. Missing dimensions count as zero.
func Mean(s Score) float64 {
	var sum float64
	for _, d := range Dimensions {
		sum += s[d]
	}
	return sum / float64(len(Dimensions))
}

// Add accumulates delta into s.
func (s Score) Add(delta Score) {
	for k, v := range delta {
		s[k] += v
	}
}
