package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"studybuddy-quiz-service/internal/domain"
)

// PerformanceRepository maintains the per-(owner, topic) mastery aggregate.
//
// RecordAnswer is a single atomic upsert: counters are incremented and
// accuracy/strength recomputed database-side, so concurrent submissions for
// the same (owner, topic) cannot lose an update. The CASE thresholds mirror
// domain.StrengthFor (strong >= 70, weak < 40).
type PerformanceRepository struct {
	pool *pgxpool.Pool
}

func NewPerformanceRepository(pool *pgxpool.Pool) *PerformanceRepository {
	return &PerformanceRepository{pool: pool}
}

func (r *PerformanceRepository) RecordAnswer(ctx context.Context, ownerID, subject, topic string, correct bool) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO performance_analytics
			(id, owner_id, subject, topic, total_attempts, correct_attempts, accuracy_percentage, strength_level, last_updated)
		VALUES
			($1, $2, $3, $4, 1, $5, $5 * 100, CASE WHEN $5 = 1 THEN 'strong' ELSE 'weak' END, now())
		ON CONFLICT (owner_id, topic) DO UPDATE SET
			subject = EXCLUDED.subject,
			total_attempts = performance_analytics.total_attempts + 1,
			correct_attempts = performance_analytics.correct_attempts + EXCLUDED.correct_attempts,
			accuracy_percentage = round(100.0 * (performance_analytics.correct_attempts + EXCLUDED.correct_attempts)
				/ (performance_analytics.total_attempts + 1)),
			strength_level = CASE
				WHEN round(100.0 * (performance_analytics.correct_attempts + EXCLUDED.correct_attempts)
					/ (performance_analytics.total_attempts + 1)) >= 70 THEN 'strong'
				WHEN round(100.0 * (performance_analytics.correct_attempts + EXCLUDED.correct_attempts)
					/ (performance_analytics.total_attempts + 1)) < 40 THEN 'weak'
				ELSE 'moderate'
			END,
			last_updated = now()`,
		uuid.NewString(), ownerID, subject, topic, correctInc)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}

func (r *PerformanceRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.TopicPerformance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, subject, topic, total_attempts, correct_attempts, accuracy_percentage, strength_level, last_updated
		FROM performance_analytics
		WHERE owner_id = $1
		ORDER BY accuracy_percentage ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	defer rows.Close()

	var perfs []domain.TopicPerformance
	for rows.Next() {
		var p domain.TopicPerformance
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Subject, &p.Topic, &p.TotalAttempts, &p.CorrectAttempts, &p.AccuracyPercentage, &p.StrengthLevel, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan performance: %w", err)
		}
		perfs = append(perfs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	return perfs, nil
}
