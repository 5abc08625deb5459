package journal

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// JsonlJournal writes one JSON object per line to a file rotated and compressed
// by lumberjack. Safe for concurrent use.
type JsonlJournal struct {
	out *lumberjack.Logger
	mu  sync.Mutex
}

// NewJsonlJournal creates a journal writing to file.
// maxSize is the size in megabytes that triggers rotation, maxBackups the number of
// rotated files kept.
func NewJsonlJournal(file string, maxSize, maxBackups int) *JsonlJournal {
	return &JsonlJournal{
		out: &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   true,
		},
	}
}

// Append writes e as a single line. Missing ID and MissionID are filled in.
func (j *JsonlJournal) Append(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if len(e.MissionID) == 0 {
		e.MissionID = json.RawMessage("null")
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.out.Write(append(data, '\n'))
	return err
}

// Close flushes and closes the current file.
func (j *JsonlJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.out.Close()
}
