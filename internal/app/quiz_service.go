package app

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"studybuddy-quiz-service/internal/domain"
)

// persistRetries caps completion-write attempts before the result is
// declared lost and the client is shown the locally computed summary.
const persistRetries = 3

// FlashcardRepository reads and writes the owner's flashcard collection.
type FlashcardRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Flashcard, error)
	Create(ctx context.Context, card *domain.Flashcard) error
}

// SessionRepository stores active quiz sessions (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// ResultStore persists completed quizzes and their per-question results.
type ResultStore interface {
	SaveCompleted(ctx context.Context, quiz domain.Quiz, results []domain.QuestionResult) error
	UpdateRetake(ctx context.Context, quiz domain.Quiz, results []domain.QuestionResult) error
	QuizWithResults(ctx context.Context, ownerID, quizID string) (domain.Quiz, []domain.QuestionResult, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error)
}

// PerformanceRepository maintains the per-(owner, topic) mastery aggregate.
// RecordAnswer must be atomic per call so concurrent submissions cannot lose
// an increment.
type PerformanceRepository interface {
	RecordAnswer(ctx context.Context, ownerID, subject, topic string, correct bool) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.TopicPerformance, error)
}

// QuizService contains the quiz lifecycle use cases.
type QuizService struct {
	flashcards    FlashcardRepository
	sessions      SessionRepository
	results       ResultStore
	performance   PerformanceRepository
	questionCount int
	now           func() time.Time
	persistPolicy func(ctx context.Context) backoff.BackOff

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(flashcards FlashcardRepository, sessions SessionRepository, results ResultStore, performance PerformanceRepository, questionCount int) *QuizService {
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}
	return &QuizService{
		flashcards:    flashcards,
		sessions:      sessions,
		results:       results,
		performance:   performance,
		questionCount: questionCount,
		now:           time.Now,
		persistPolicy: func(ctx context.Context) backoff.BackOff {
			return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), persistRetries), ctx)
		},
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartQuiz fetches the owner's flashcards, generates a question set, and
// registers a new session. Fails with domain.ErrInsufficientContent when the
// collection is too small.
func (s *QuizService) StartQuiz(ctx context.Context, ownerID string) (*Session, error) {
	cards, err := s.flashcards.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.rndMu.Lock()
	questions, err := GenerateQuiz(cards, s.questionCount, s.rnd)
	s.rndMu.Unlock()
	if err != nil {
		return nil, err
	}

	session := newSession(uuid.NewString(), ownerID, "Flashcard Quiz", dominantTopic(questions), QuizTypeFlashcards, questions, s.now)
	s.sessions.Put(session)
	return session, nil
}

// StartRetake replays a persisted quiz: questions are rebuilt from the stored
// result rows and completion rewrites those rows in place.
func (s *QuizService) StartRetake(ctx context.Context, ownerID, quizID string) (*Session, error) {
	quiz, results, err := s.results.QuizWithResults(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrQuizNotFound
	}

	s.rndMu.Lock()
	questions := RetakeQuestions(results, s.rnd)
	s.rndMu.Unlock()

	session := newSession(uuid.NewString(), ownerID, quiz.Title, quiz.Subject, QuizTypeRetake, questions, s.now)
	session.retakeQuizID = quiz.ID
	s.sessions.Put(session)
	return session, nil
}

// SubmitAnswer scores the choice against the session's current question,
// feeds the performance aggregate, and on the final answer persists the quiz
// and returns its summary. The summary is non-nil only when the session
// completed.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, questionID, choice string) (domain.AnswerOutcome, *domain.SessionSummary, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerOutcome{}, nil, domain.ErrSessionNotFound
	}

	outcome, question, finished, err := session.submitAnswer(questionID, choice)
	if err != nil {
		return domain.AnswerOutcome{}, nil, err
	}

	// Best-effort side channel: an analytics failure never blocks the quiz.
	if err := s.performance.RecordAnswer(ctx, session.ownerID, session.subject, question.Topic, outcome.Correct); err != nil {
		log.Printf("analytics update failed for owner=%s topic=%s: %v", session.ownerID, question.Topic, err)
	}

	if !finished {
		return outcome, nil, nil
	}

	summary := s.complete(ctx, session)
	s.sessions.Delete(sessionID)
	return outcome, &summary, nil
}

// Abandon discards a session without persisting anything.
func (s *QuizService) Abandon(sessionID string) {
	s.sessions.Delete(sessionID)
}

// complete converts a finished session into persisted Quiz and result rows.
// The write is retried with capped exponential backoff; a final failure is
// logged and the locally computed summary is still returned.
func (s *QuizService) complete(ctx context.Context, session *Session) domain.SessionSummary {
	answers, score, elapsed := session.snapshot()
	questions := session.Questions()
	total := len(questions)

	quiz := domain.Quiz{
		ID:               uuid.NewString(),
		OwnerID:          session.ownerID,
		Title:            session.title,
		Subject:          session.subject,
		TotalQuestions:   total,
		Score:            score,
		Percentage:       math.Round(float64(score) / float64(total) * 100),
		TimeTakenSeconds: int(elapsed.Seconds()),
		QuizType:         session.quizType,
		CreatedAt:        s.now(),
	}

	retake := session.quizType == QuizTypeRetake
	if retake {
		quiz.ID = session.retakeQuizID
	}

	results := make([]domain.QuestionResult, 0, total)
	for i, q := range questions {
		result := domain.QuestionResult{
			ID:            q.ID,
			QuizID:        quiz.ID,
			OwnerID:       session.ownerID,
			Topic:         q.Topic,
			QuestionText:  q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    answers[i].ChosenAnswer,
			IsCorrect:     answers[i].IsCorrect,
		}
		if !retake {
			result.ID = uuid.NewString()
		}
		results = append(results, result)
	}

	persist := func() error {
		if retake {
			return s.results.UpdateRetake(ctx, quiz, results)
		}
		return s.results.SaveCompleted(ctx, quiz, results)
	}

	persisted := true
	if err := backoff.Retry(persist, s.persistPolicy(ctx)); err != nil {
		log.Printf("quiz persistence failed for owner=%s quiz=%s: %v", session.ownerID, quiz.ID, err)
		persisted = false
	}

	return domain.SessionSummary{
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		Subject:          quiz.Subject,
		TotalQuestions:   total,
		Score:            score,
		Percentage:       quiz.Percentage,
		TimeTakenSeconds: quiz.TimeTakenSeconds,
		Persisted:        persisted,
	}
}

// TopicPerformance lists the owner's mastery aggregates ordered weakest first.
func (s *QuizService) TopicPerformance(ctx context.Context, ownerID string) ([]domain.TopicPerformance, error) {
	rows, err := s.performance.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AccuracyPercentage < rows[j].AccuracyPercentage
	})
	return rows, nil
}

// QuizHistory lists the owner's persisted quiz headers, newest first.
func (s *QuizService) QuizHistory(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	quizzes, err := s.results.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

// PerformanceSummary projects quiz history and topic strengths into one view.
func (s *QuizService) PerformanceSummary(ctx context.Context, ownerID string) (domain.PerformanceSummary, error) {
	rows, err := s.performance.ListByOwner(ctx, ownerID)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}
	quizzes, err := s.results.ListByOwner(ctx, ownerID)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}

	summary := domain.PerformanceSummary{
		OwnerID:        ownerID,
		QuizzesTaken:   len(quizzes),
		StrongTopics:   []string{},
		ModerateTopics: []string{},
		WeakTopics:     []string{},
	}
	for _, row := range rows {
		summary.TotalAttempts += row.TotalAttempts
		summary.CorrectAttempts += row.CorrectAttempts
		switch row.StrengthLevel {
		case domain.StrengthStrong:
			summary.StrongTopics = append(summary.StrongTopics, row.Topic)
		case domain.StrengthWeak:
			summary.WeakTopics = append(summary.WeakTopics, row.Topic)
		default:
			summary.ModerateTopics = append(summary.ModerateTopics, row.Topic)
		}
	}
	if summary.TotalAttempts > 0 {
		summary.OverallAccuracy = math.Round(float64(summary.CorrectAttempts) / float64(summary.TotalAttempts) * 100)
	}
	return summary, nil
}

// CreateFlashcard stores a manually entered card for the owner.
func (s *QuizService) CreateFlashcard(ctx context.Context, card *domain.Flashcard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = s.now()
	}
	return s.flashcards.Create(ctx, card)
}

// Flashcards lists the owner's collection.
func (s *QuizService) Flashcards(ctx context.Context, ownerID string) ([]domain.Flashcard, error) {
	return s.flashcards.ListByOwner(ctx, ownerID)
}
