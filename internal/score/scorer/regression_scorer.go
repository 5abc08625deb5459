package scorer

import (
	"context"
	"fmt"

	"harvest/internal/score"
)

// Inferer runs the model on a sanitized answer and returns its raw outputs.
// *ModelClient is the production implementation.
type Inferer interface {
	Infer(ctx context.Context, text string) ([]float64, error)
}

// RegressionScorer reads one continuous output per dimension.
// Each output is scaled by score.Max and clamped to [score.Min, score.Max].
type RegressionScorer struct {
	model Inferer
}

// Score runs inference and maps the three outputs onto score.Dimensions in order.
func (rs *RegressionScorer) Score(ctx context.Context, text string) (score.Score, error) {
	outputs, err := rs.model.Infer(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(outputs) != len(score.Dimensions) {
		return nil, fmt.Errorf("regression head: expected %d outputs, got %d", len(score.Dimensions), len(outputs))
	}

	result := make(score.Score, len(score.Dimensions))
	for i, d := range score.Dimensions {
		result[d] = score.Clamp(outputs[i]*score.Max, score.Min, score.Max)
	}

	return result, nil
}

// NewRegressionScorer creates a scorer for a 3-output regression head.
func NewRegressionScorer(model Inferer) *RegressionScorer {
	return &RegressionScorer{model: model}
}
