package scorer

import (
	"fmt"

	"harvest/internal/score"
	"harvest/internal/score/rule"
)

// Model heads.
const (
	HeadRegression     = "regression"
	HeadClassification = "classification"
)

// New returns the scorer matching head. Bonus rules only apply to the classification head.
func New(head string, model Inferer, bonus rule.Set) (score.Scorer, error) {
	switch head {
	case HeadRegression:
		return NewRegressionScorer(model), nil
	case HeadClassification:
		return NewClassificationScorer(model, bonus), nil
	default:
		return nil, fmt.Errorf("unknown model head %q", head)
	}
}
