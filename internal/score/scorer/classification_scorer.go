package scorer

import (
	"context"
	"fmt"

	"harvest/internal/score"
	"harvest/internal/score/rule"
)

// Classes is the number of labels of the classification head.
const Classes = 5

// ClassificationScorer reads a 5-class head and turns the predicted label into a 1–5
// score, then applies the bonus rules and clamps the result to [score.Min, score.Max].
//
// The model either exposes one head shared by every dimension (5 logits) or one head
// per dimension (15 logits, dimension-major).
type ClassificationScorer struct {
	model Inferer
	bonus rule.Set
}

// Score runs inference, takes the argmax per dimension and adds the rule bonus.
func (cs *ClassificationScorer) Score(ctx context.Context, text string) (score.Score, error) {
	logits, err := cs.model.Infer(ctx, text)
	if err != nil {
		return nil, err
	}

	var heads [][]float64
	switch len(logits) {
	case Classes:
		for range score.Dimensions {
			heads = append(heads, logits)
		}
	case Classes * len(score.Dimensions):
		for i := range score.Dimensions {
			heads = append(heads, logits[i*Classes:(i+1)*Classes])
		}
	default:
		return nil, fmt.Errorf("classification head: expected %d or %d logits, got %d",
			Classes, Classes*len(score.Dimensions), len(logits))
	}

	bonus := cs.bonus.Bonus(rule.Extract(text))

	result := make(score.Score, len(score.Dimensions))
	for i, d := range score.Dimensions {
		label := float64(argmax(heads[i]) + 1)
		result[d] = score.Clamp(label+bonus[d], score.Min, score.Max)
	}

	return result, nil
}

// argmax returns the index of the largest value; ties resolve to the lowest index.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// NewClassificationScorer creates a scorer for a 5-class head with optional bonus rules.
func NewClassificationScorer(model Inferer, bonus rule.Set) *ClassificationScorer {
	return &ClassificationScorer{model: model, bonus: bonus}
}
