package answer

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// Minimal answer size accepted for scoring.
const (
	MinChars = 2
	MinWords = 5
)

// ErrAnswerTooShort is returned by Validate for answers below MinChars or MinWords.
// Its text is the error message returned to clients.
var ErrAnswerTooShort = errors.New("Answer too short")

// Request is the body of POST /process-answer.
type Request struct {
	// MissionID is opaque and echoed back unchanged.
	MissionID json.RawMessage `json:"mission_id"`
	Answer    string          `json:"answer"`
}

// Sanitize trims text and collapses every whitespace run into a single space.
func Sanitize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WordCount returns the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Validate rejects sanitized answers that are too short to be scored.
func Validate(text string) error {
	if utf8.RuneCountInString(text) < MinChars || WordCount(text) < MinWords {
		return ErrAnswerTooShort
	}
	return nil
}
