package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"studybuddy-quiz-service/internal/domain"
)

// FlashcardRepository reads and writes flashcards in Postgres.
type FlashcardRepository struct {
	pool *pgxpool.Pool
}

func NewFlashcardRepository(pool *pgxpool.Pool) *FlashcardRepository {
	return &FlashcardRepository{pool: pool}
}

func (r *FlashcardRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Flashcard, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, question, answer, subject, difficulty, source_document, created_at
		FROM flashcards
		WHERE owner_id = $1
		ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		var card domain.Flashcard
		var subject, difficulty, source sql.NullString
		if err := rows.Scan(&card.ID, &card.OwnerID, &card.Question, &card.Answer, &subject, &difficulty, &source, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		card.Subject = subject.String
		card.Difficulty = domain.Difficulty(difficulty.String)
		card.SourceDocument = source.String
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	return cards, nil
}

func (r *FlashcardRepository) Create(ctx context.Context, card *domain.Flashcard) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO flashcards (id, owner_id, question, answer, subject, difficulty, source_document, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)`,
		card.ID, card.OwnerID, card.Question, card.Answer, card.Subject, string(card.Difficulty), card.SourceDocument, card.CreatedAt)
	if err != nil {
		return fmt.Errorf("create flashcard: %w", err)
	}
	return nil
}
