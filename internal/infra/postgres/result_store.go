package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"studybuddy-quiz-service/internal/domain"
)

// ResultStore persists completed quizzes and their per-question result rows.
//
// The header insert and the result batch are two independent writes. The
// store does not wrap them in a transaction; both statements are idempotent
// (ON CONFLICT DO NOTHING) so the caller's retry policy can safely re-run
// the whole save after a partial failure.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveCompleted(ctx context.Context, quiz domain.Quiz, results []domain.QuestionResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, owner_id, title, subject, total_questions, score, percentage, time_taken_seconds, quiz_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		quiz.ID, quiz.OwnerID, quiz.Title, quiz.Subject, quiz.TotalQuestions, quiz.Score, quiz.Percentage, quiz.TimeTakenSeconds, quiz.QuizType, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quiz header: %w", err)
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO quiz_question_results (id, quiz_id, owner_id, topic, question_text, correct_answer, user_answer, is_correct)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
			ON CONFLICT (id) DO NOTHING`,
			r.ID, r.QuizID, r.OwnerID, r.Topic, r.QuestionText, r.CorrectAnswer, r.UserAnswer, r.IsCorrect)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert question results: %w", err)
		}
	}
	return nil
}

// UpdateRetake corrects a replayed quiz's header and rewrites each result
// row's answer in place.
func (s *ResultStore) UpdateRetake(ctx context.Context, quiz domain.Quiz, results []domain.QuestionResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quizzes
		SET score = $1, percentage = $2, time_taken_seconds = $3
		WHERE id = $4 AND owner_id = $5`,
		quiz.Score, quiz.Percentage, quiz.TimeTakenSeconds, quiz.ID, quiz.OwnerID)
	if err != nil {
		return fmt.Errorf("update quiz header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			UPDATE quiz_question_results
			SET user_answer = NULLIF($1, ''), is_correct = $2
			WHERE id = $3 AND quiz_id = $4`,
			r.UserAnswer, r.IsCorrect, r.ID, r.QuizID)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("update question results: %w", err)
		}
	}
	return nil
}

func (s *ResultStore) QuizWithResults(ctx context.Context, ownerID, quizID string) (domain.Quiz, []domain.QuestionResult, error) {
	var quiz domain.Quiz
	var timeTaken sql.NullInt32
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, title, subject, total_questions, score, percentage, time_taken_seconds, quiz_type, created_at
		FROM quizzes
		WHERE id = $1 AND owner_id = $2`, quizID, ownerID).
		Scan(&quiz.ID, &quiz.OwnerID, &quiz.Title, &quiz.Subject, &quiz.TotalQuestions, &quiz.Score, &quiz.Percentage, &timeTaken, &quiz.QuizType, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load quiz: %w", err)
	}
	quiz.TimeTakenSeconds = int(timeTaken.Int32)

	rows, err := s.pool.Query(ctx, `
		SELECT id, quiz_id, owner_id, topic, question_text, correct_answer, user_answer, is_correct
		FROM quiz_question_results
		WHERE quiz_id = $1
		ORDER BY id`, quizID)
	if err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load quiz results: %w", err)
	}
	defer rows.Close()

	var results []domain.QuestionResult
	for rows.Next() {
		var r domain.QuestionResult
		var userAnswer sql.NullString
		if err := rows.Scan(&r.ID, &r.QuizID, &r.OwnerID, &r.Topic, &r.QuestionText, &r.CorrectAnswer, &userAnswer, &r.IsCorrect); err != nil {
			return domain.Quiz{}, nil, fmt.Errorf("scan quiz result: %w", err)
		}
		r.UserAnswer = userAnswer.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load quiz results: %w", err)
	}
	return quiz, results, nil
}

func (s *ResultStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, title, subject, total_questions, score, percentage, time_taken_seconds, quiz_type, created_at
		FROM quizzes
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		var timeTaken sql.NullInt32
		if err := rows.Scan(&quiz.ID, &quiz.OwnerID, &quiz.Title, &quiz.Subject, &quiz.TotalQuestions, &quiz.Score, &quiz.Percentage, &timeTaken, &quiz.QuizType, &quiz.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quiz.TimeTakenSeconds = int(timeTaken.Int32)
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}
