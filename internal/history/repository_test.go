package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"harvest/internal/answer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(words int) Record {
	return Record{
		Words:                 words,
		DetailedScores:        answer.DetailedScores{Average: float64(words) / 10},
		QualitativeAssessment: answer.Limited,
	}
}

// TestNewRepository checks the repository starts empty with the given parameters
func TestNewRepository(t *testing.T) {
	repo := NewRepository(5, 10*time.Minute)

	assert.Equal(t, 5, repo.length)
	assert.Equal(t, 10*time.Minute, repo.ttl)
	assert.Empty(t, repo.records)
}

// TestRepository_Append checks the ring buffer overwrite per mission
func TestRepository_Append(t *testing.T) {
	repo := NewRepository(2, 0)

	repo.Append(`"m1"`, record(5))
	repo.Append(`"m1"`, record(6))

	records, err := repo.Get(`"m1"`)
	require.NoError(t, err)
	assert.Equal(t, []Record{record(5), record(6)}, records)

	repo.Append(`"m1"`, record(7))

	records, err = repo.Get(`"m1"`)
	require.NoError(t, err)
	assert.Equal(t, []Record{record(6), record(7)}, records, "oldest record should be evicted")
}

// TestRepository_Get_NotFound checks unknown missions
func TestRepository_Get_NotFound(t *testing.T) {
	repo := NewRepository(3, 0)

	_, err := repo.Get(`"missing"`)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestRepository_MultipleMissions checks buffers are independent
func TestRepository_MultipleMissions(t *testing.T) {
	repo := NewRepository(2, 0)

	repo.Append(`1`, record(1))
	repo.Append(`1`, record(2))
	repo.Append(`1`, record(3))
	repo.Append(`"1"`, record(10))

	r1, _ := repo.Get(`1`)
	r2, _ := repo.Get(`"1"`)

	assert.Equal(t, []Record{record(2), record(3)}, r1)
	assert.Equal(t, []Record{record(10)}, r2, "numeric and string mission ids are distinct")
}

// TestRepository_ConcurrentAppend checks Append is safe for concurrent use
func TestRepository_ConcurrentAppend(t *testing.T) {
	repo := NewRepository(100, 0)
	iterations := 1000

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(mission string) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				repo.Append(mission, record(j))
			}
		}(fmt.Sprintf(`"m%d"`, i))
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		records, err := repo.Get(fmt.Sprintf(`"m%d"`, i))
		require.NoError(t, err)
		assert.Len(t, records, 100)
		assert.Equal(t, iterations-1, records[len(records)-1].Words)
	}
}

// TestRepository_Evict checks idle missions are dropped and active ones kept
func TestRepository_Evict(t *testing.T) {
	repo := NewRepository(3, time.Hour)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	repo.Append(`"old"`, record(5))
	now = now.Add(50 * time.Minute)
	repo.Append(`"fresh"`, record(5))
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, repo.evict())

	_, err := repo.Get(`"old"`)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(`"fresh"`)
	assert.NoError(t, err)
}

// TestRepository_AppendRevivesStaleMission checks a stale mission that gets a new
// record is kept by the next eviction
func TestRepository_AppendRevivesStaleMission(t *testing.T) {
	repo := NewRepository(3, time.Hour)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	repo.Append(`"m"`, record(5))
	now = now.Add(2 * time.Hour)
	repo.Append(`"m"`, record(6))

	assert.Equal(t, 0, repo.evict())
	records, err := repo.Get(`"m"`)
	require.NoError(t, err)
	assert.Equal(t, []Record{record(5), record(6)}, records)
}

// TestRepository_AppendDuringEvict checks records and timestamps stay consistent
// while eviction runs concurrently with appends
func TestRepository_AppendDuringEvict(t *testing.T) {
	repo := NewRepository(4, time.Nanosecond)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				repo.evict()
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		repo.Append(fmt.Sprintf(`"m%d"`, i%7), record(i))
	}
	close(stop)
	wg.Wait()

	repo.mu.RLock()
	defer repo.mu.RUnlock()
	assert.Equal(t, len(repo.records), len(repo.updates))
	for mission := range repo.updates {
		assert.Contains(t, repo.records, mission)
	}
}

// TestRepository_Serve checks the cleaner stops with its context
func TestRepository_Serve(t *testing.T) {
	repo := NewRepository(3, time.Millisecond)
	repo.cleanInterval = 5 * time.Millisecond
	repo.Append(`"m"`, record(5))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- repo.Serve(ctx) }()

	assert.Eventually(t, func() bool {
		_, err := repo.Get(`"m"`)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
}
