package memory

import (
	"context"
	"sync"

	"studybuddy-quiz-service/internal/domain"
)

// ResultStore keeps completed quizzes and their result rows in memory.
type ResultStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	results map[string][]domain.QuestionResult // quizID -> ordered rows
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		quizzes: make(map[string]domain.Quiz),
		results: make(map[string][]domain.QuestionResult),
	}
}

func (s *ResultStore) SaveCompleted(_ context.Context, quiz domain.Quiz, results []domain.QuestionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	rows := make([]domain.QuestionResult, len(results))
	copy(rows, results)
	s.results[quiz.ID] = rows
	return nil
}

func (s *ResultStore) UpdateRetake(_ context.Context, quiz domain.Quiz, results []domain.QuestionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	stored.Score = quiz.Score
	stored.Percentage = quiz.Percentage
	stored.TimeTakenSeconds = quiz.TimeTakenSeconds
	s.quizzes[quiz.ID] = stored

	byID := make(map[string]domain.QuestionResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	rows := s.results[quiz.ID]
	for i, row := range rows {
		if updated, ok := byID[row.ID]; ok {
			rows[i].UserAnswer = updated.UserAnswer
			rows[i].IsCorrect = updated.IsCorrect
		}
	}
	return nil
}

func (s *ResultStore) QuizWithResults(_ context.Context, ownerID, quizID string) (domain.Quiz, []domain.QuestionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok || quiz.OwnerID != ownerID {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	rows := make([]domain.QuestionResult, len(s.results[quizID]))
	copy(rows, s.results[quizID])
	return quiz, rows, nil
}

func (s *ResultStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0)
	for _, quiz := range s.quizzes {
		if quiz.OwnerID == ownerID {
			quizzes = append(quizzes, quiz)
		}
	}
	return quizzes, nil
}
