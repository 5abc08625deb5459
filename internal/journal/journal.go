package journal

import (
	"encoding/json"
	"time"

	"harvest/internal/score"
)

// Entry is one scored answer as written to the journal.
type Entry struct {
	Time      time.Time       `json:"time"`
	ID        string          `json:"id"`
	MissionID json.RawMessage `json:"mission_id"`
	Answer    string          `json:"answer"`
	Scores    score.Score     `json:"scores"`
}

// Journal stores scored answers for later use as training data.
type Journal interface {
	Append(e Entry) error
	Close() error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Append(Entry) error { return nil }
func (Nop) Close() error       { return nil }
