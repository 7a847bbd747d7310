package app

import (
	"sync"
	"time"

	"studybuddy-quiz-service/internal/domain"
)

// QuizTypeFlashcards marks quizzes generated fresh from a flashcard
// collection; QuizTypeRetake marks replays of a persisted quiz.
const (
	QuizTypeFlashcards = "flashcards"
	QuizTypeRetake     = "retake"
)

// Session tracks one interactive quiz run: the generated questions, the
// answer cursor, and the running score. A session belongs to a single
// connection; the mutex guards against accidental cross-goroutine use,
// not a shared-access design.
type Session struct {
	id           string
	ownerID      string
	title        string
	subject      string
	quizType     string
	retakeQuizID string
	questions    []domain.QuizQuestion
	startedAt    time.Time
	now          func() time.Time

	mu        sync.Mutex
	cursor    int
	answers   []domain.Answer
	score     int
	completed bool
}

func newSession(id, ownerID, title, subject, quizType string, questions []domain.QuizQuestion, now func() time.Time) *Session {
	return &Session{
		id:        id,
		ownerID:   ownerID,
		title:     title,
		subject:   subject,
		quizType:  quizType,
		questions: questions,
		startedAt: now(),
		now:       now,
		answers:   make([]domain.Answer, 0, len(questions)),
	}
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, ownerID string, questions []domain.QuizQuestion, now func() time.Time) *Session {
	return newSession(id, ownerID, "Flashcard Quiz", dominantTopic(questions), QuizTypeFlashcards, questions, now)
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// OwnerID returns the owning user.
func (s *Session) OwnerID() string { return s.ownerID }

// Questions returns the full ordered question set.
func (s *Session) Questions() []domain.QuizQuestion { return s.questions }

// CurrentQuestion returns the question awaiting an answer, or false once the
// session completed.
func (s *Session) CurrentQuestion() (domain.QuizQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return domain.QuizQuestion{}, false
	}
	return s.questions[s.cursor], true
}

// submitAnswer records the choice for the current question and advances the
// cursor. The final answer flips the session to completed.
func (s *Session) submitAnswer(questionID, choice string) (domain.AnswerOutcome, domain.QuizQuestion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return domain.AnswerOutcome{}, domain.QuizQuestion{}, false, domain.ErrSessionCompleted
	}

	current := s.questions[s.cursor]
	if questionID != "" && questionID != current.ID {
		return domain.AnswerOutcome{}, domain.QuizQuestion{}, false, domain.ErrQuestionMismatch
	}

	correct := choice == current.CorrectAnswer
	s.answers = append(s.answers, domain.Answer{
		QuestionID:   current.ID,
		ChosenAnswer: choice,
		IsCorrect:    correct,
	})
	if correct {
		s.score++
	}

	s.cursor++
	if s.cursor == len(s.questions) {
		s.completed = true
	}

	return domain.AnswerOutcome{
		QuestionID:    current.ID,
		Correct:       correct,
		CorrectAnswer: current.CorrectAnswer,
		Score:         s.score,
		Answered:      len(s.answers),
		Remaining:     len(s.questions) - len(s.answers),
	}, current, s.completed, nil
}

// snapshot returns the immutable view needed to persist a completed session.
func (s *Session) snapshot() (answers []domain.Answer, score int, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers = make([]domain.Answer, len(s.answers))
	copy(answers, s.answers)
	return answers, s.score, s.now().Sub(s.startedAt)
}
