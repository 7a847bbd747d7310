package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"studybuddy-quiz-service/internal/domain"
)

// PerformanceRepository maintains per-(owner, topic) aggregates in memory.
// Each RecordAnswer runs under one lock, matching the atomicity the Postgres
// upsert provides.
type PerformanceRepository struct {
	clock func() time.Time

	mu   sync.RWMutex
	rows map[string]domain.TopicPerformance // owner + "\x00" + topic
}

func NewPerformanceRepository() *PerformanceRepository {
	return &PerformanceRepository{
		clock: time.Now,
		rows:  make(map[string]domain.TopicPerformance),
	}
}

// NewPerformanceRepositoryWithClock allows deterministic timestamps in tests.
func NewPerformanceRepositoryWithClock(clock func() time.Time) *PerformanceRepository {
	repo := NewPerformanceRepository()
	repo.clock = clock
	return repo
}

func (r *PerformanceRepository) RecordAnswer(_ context.Context, ownerID, subject, topic string, correct bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ownerID + "\x00" + topic
	row, ok := r.rows[key]
	if !ok {
		row = domain.TopicPerformance{
			ID:      uuid.NewString(),
			OwnerID: ownerID,
			Topic:   topic,
		}
	}

	// Subject tracks the most recent quiz so a renamed collection is reflected.
	row.Subject = subject
	row.TotalAttempts++
	if correct {
		row.CorrectAttempts++
	}
	row.AccuracyPercentage = math.Round(float64(row.CorrectAttempts) / float64(row.TotalAttempts) * 100)
	row.StrengthLevel = domain.StrengthFor(row.AccuracyPercentage)
	row.LastUpdated = r.clock()
	r.rows[key] = row
	return nil
}

func (r *PerformanceRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.TopicPerformance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]domain.TopicPerformance, 0)
	for _, row := range r.rows {
		if row.OwnerID == ownerID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
