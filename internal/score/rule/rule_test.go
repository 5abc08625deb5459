package rule

import (
	"os"
	"path/filepath"
	"testing"

	"harvest/internal/score"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, when string, then score.Score) *Rule {
	t.Helper()
	env, err := NewEnv()
	require.NoError(t, err)

	r := &Rule{When: when, Then: then}
	require.NoError(t, r.Init(env))
	return r
}

func TestRule_Init_Success(t *testing.T) {
	r := compile(t, "words > 10", score.Score{score.Knowledge: 1})
	assert.NotNil(t, r.program, "program should be compiled and assigned")
}

func TestRule_Init_ParseError(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)

	r := &Rule{When: "words > "}
	assert.Error(t, r.Init(env), "expected parse error for invalid expression")
}

func TestRule_Init_CheckError(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)

	r := &Rule{When: "words > '10'"}
	assert.Error(t, r.Init(env), "expected check error for type mismatch")

	r = &Rule{When: "unknownField == 1"}
	assert.Error(t, r.Init(env), "expected error for undeclared variable")
}

func TestRule_Init_NonBoolCondition(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)

	r := &Rule{When: "words + 1"}
	err = r.Init(env)

	var typeErr *ConditionTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestRule_Eval(t *testing.T) {
	r := compile(t, "words >= 30 && numbers > 0", score.Score{score.Examples: 1})

	assert.Equal(t, score.Score{score.Examples: 1}, r.Eval(Features{Words: 40, Numbers: 2}))
	assert.Empty(t, r.Eval(Features{Words: 40}))
	assert.Empty(t, r.Eval(Features{Words: 3, Numbers: 2}))
}

func TestRule_Eval_Uninitialized(t *testing.T) {
	r := &Rule{When: "true", Then: score.Score{score.Knowledge: 1}}
	assert.Empty(t, r.Eval(Features{}))
}

func TestSet_Bonus_SumsMatchingRules(t *testing.T) {
	set, err := Parse([]byte(`
- when: words < 10
  then:
    knowledge: -1
    awareness: -1
    examples: -1
- when: words >= 30
  then:
    knowledge: 1
    awareness: 1
    examples: 1
- when: words >= 60
  then:
    knowledge: 1
    awareness: 1
    examples: 1
`))
	require.NoError(t, err)
	require.Len(t, set, 3)

	tests := []struct {
		name  string
		words int
		want  float64
	}{
		{"short", 5, -1},
		{"neutral", 20, 0},
		{"long", 30, 1},
		{"very long", 75, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bonus := set.Bonus(Features{Words: tt.words})
			for _, d := range score.Dimensions {
				assert.Equal(t, tt.want, bonus[d], d)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("when: invalid yaml [[[[["))
	assert.Error(t, err, "invalid YAML")

	_, err = Parse([]byte("not: a list"))
	assert.Error(t, err, "valid YAML that is not a rule list")

	_, err = Parse([]byte(`- when: "sentences ==="`))
	assert.Error(t, err, "invalid condition")
}

func TestParse_Empty(t *testing.T) {
	set, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.Empty(t, set.Bonus(Features{Words: 100}))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- when: sentences > 1\n  then:\n    awareness: 0.5\n"), 0o600))

	set, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, score.Score{score.Awareness: 0.5}, set.Bonus(Features{Sentences: 2}))

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	f := Extract("Maize yields rose 20% in 2023. Farmers rotate beans! Why")

	assert.Equal(t, 10, f.Words)
	assert.Equal(t, 2, f.Numbers)
	assert.Equal(t, 3, f.Sentences)
	assert.Equal(t, len([]rune("Maize yields rose 20% in 2023. Farmers rotate beans! Why")), f.Chars)

	assert.Equal(t, Features{}, Extract(""))
	assert.Equal(t, 0, Extract("...").Sentences, "punctuation alone is not a sentence")
}
