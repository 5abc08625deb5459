package rule

import (
	"harvest/internal/score"

	"github.com/google/cel-go/cel"
)

// Rule adjusts sub-scores based on answer features.
// When holds a CEL condition over Features, Then the delta applied when it is true.
// The CEL program is compiled by Init and reused by Eval.
type Rule struct {
	// When — CEL expression, must evaluate to bool.
	When string `yaml:"when"`
	// Then — per-dimension delta added when the condition holds.
	Then score.Score `yaml:"then"`

	program cel.Program
}

var emptyScore = make(score.Score)

// Init compiles When into an executable program using env.
// Syntax and type errors are returned as is.
func (r *Rule) Init(env *cel.Env) error {
	ast, iss := env.Compile(r.When)
	if iss.Err() != nil {
		return iss.Err()
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return &ConditionTypeError{When: r.When, Type: ast.OutputType().String()}
	}

	var err error
	r.program, err = env.Program(ast)
	if err != nil {
		return err
	}

	return nil
}

// Eval returns Then when the condition holds for f and an empty Score otherwise.
// Runtime evaluation errors are treated as a false condition.
func (r *Rule) Eval(f Features) score.Score {
	if r.program == nil {
		return emptyScore
	}

	result, _, err := r.program.Eval(f.activation())
	if err != nil || result.Value() != true {
		return emptyScore
	}

	return r.Then
}

// ConditionTypeError is returned by Init when When does not evaluate to bool.
type ConditionTypeError struct {
	When string
	Type string
}

func (e *ConditionTypeError) Error() string {
	return "rule condition '" + e.When + "' must be bool, got " + e.Type
}

// Set is an ordered list of compiled rules.
type Set []Rule

// Bonus sums the deltas of every rule matching f.
func (s Set) Bonus(f Features) score.Score {
	total := make(score.Score)
	for i := range s {
		total.Add(s[i].Eval(f))
	}
	return total
}
