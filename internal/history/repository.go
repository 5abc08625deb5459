package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"harvest/internal/answer"
	"harvest/internal/utils"
)

// ErrNotFound is returned when a mission has no recorded assessments.
var ErrNotFound = errors.New("mission not found")

// Record is one scored answer kept for a mission.
type Record struct {
	Time                  time.Time             `json:"time"`
	Words                 int                   `json:"words"`
	DetailedScores        answer.DetailedScores `json:"detailed_scores"`
	QualitativeAssessment string                `json:"qualitative_assessment"`
}

// Repository keeps the latest assessments of every mission in a fixed-size ring buffer.
// Missions that received no assessment for longer than ttl are dropped by Serve.
//
//	repo := history.NewRepository(20, time.Hour)
//	go repo.Serve(ctx)
//	repo.Append(`"mission-7"`, record)
type Repository struct {
	length int
	ttl    time.Duration

	records map[string]*utils.RingBuffer[Record]
	updates map[string]time.Time
	mu      sync.RWMutex

	cleanInterval time.Duration
	now           func() time.Time
}

// Append stores r for mission. Safe for concurrent use.
// The push and the timestamp happen under the write lock, so evict never drops a
// mission between the two.
func (repo *Repository) Append(mission string, r Record) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	buffer, found := repo.records[mission]
	if !found {
		buffer = utils.NewRingBuffer[Record](repo.length)
		repo.records[mission] = buffer
	}
	buffer.Push(r)
	repo.updates[mission] = repo.now()
}

// Get returns a copy of the mission's records, oldest first.
func (repo *Repository) Get(mission string) ([]Record, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	buffer, found := repo.records[mission]
	if !found {
		return nil, ErrNotFound
	}
	return buffer.ToSlice(), nil
}

// Serve evicts idle missions once per clean interval until ctx is cancelled.
// Blocks; run it in a goroutine. A non-positive ttl disables eviction.
func (repo *Repository) Serve(ctx context.Context) error {
	if repo.ttl <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(repo.cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			repo.evict()
		}
	}
}

// evict drops missions idle for longer than ttl and returns how many were dropped.
func (repo *Repository) evict() int {
	var outdated []string

	repo.mu.RLock()
	now := repo.now()
	for mission, ts := range repo.updates {
		if now.Sub(ts) > repo.ttl {
			outdated = append(outdated, mission)
		}
	}
	repo.mu.RUnlock()

	if len(outdated) == 0 {
		return 0
	}

	dropped := 0
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, mission := range outdated {
		// may have been refreshed since the scan
		if ts, ok := repo.updates[mission]; ok && now.Sub(ts) > repo.ttl {
			delete(repo.records, mission)
			delete(repo.updates, mission)
			dropped++
		}
	}
	return dropped
}

// NewRepository creates a repository keeping up to length records per mission and
// evicting missions idle for longer than ttl. length must be positive.
func NewRepository(length int, ttl time.Duration) *Repository {
	return &Repository{
		length:        length,
		ttl:           ttl,
		records:       make(map[string]*utils.RingBuffer[Record]),
		updates:       make(map[string]time.Time),
		cleanInterval: time.Minute,
		now:           time.Now,
	}
}
