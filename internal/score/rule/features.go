package rule

import (
	"strings"
	"unicode"

	"github.com/google/cel-go/cel"
)

// Features are the answer properties bonus rules can refer to.
type Features struct {
	Words     int
	Chars     int
	Sentences int
	// Numbers counts words containing at least one digit.
	Numbers int
}

// Extract computes Features of a sanitized answer.
func Extract(text string) Features {
	words := strings.Fields(text)
	f := Features{
		Words: len(words),
		Chars: len([]rune(text)),
	}

	for _, w := range words {
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			f.Numbers++
		}
	}

	inSentence := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if inSentence {
				f.Sentences++
				inSentence = false
			}
		default:
			if !unicode.IsSpace(r) {
				inSentence = true
			}
		}
	}
	if inSentence {
		f.Sentences++
	}

	return f
}

func (f Features) activation() map[string]any {
	return map[string]any{
		"words":     int64(f.Words),
		"chars":     int64(f.Chars),
		"sentences": int64(f.Sentences),
		"numbers":   int64(f.Numbers),
	}
}

// NewEnv declares the variables available to rule conditions.
func NewEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("words", cel.IntType),
		cel.Variable("chars", cel.IntType),
		cel.Variable("sentences", cel.IntType),
		cel.Variable("numbers", cel.IntType),
	)
}
