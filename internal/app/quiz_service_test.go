package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"studybuddy-quiz-service/internal/app"
	"studybuddy-quiz-service/internal/domain"
	"studybuddy-quiz-service/internal/infra/memory"
)

func TestFullQuizFlowAllCorrect(t *testing.T) {
	ctx := context.Background()
	service, stores := newTestService(seedCards(5))

	session, err := service.StartQuiz(ctx, "u1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	questions := session.Questions()
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}

	var summary *domain.SessionSummary
	for _, q := range questions {
		outcome, s, err := service.SubmitAnswer(ctx, session.ID(), q.ID, q.CorrectAnswer)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if !outcome.Correct {
			t.Fatalf("expected correct outcome for %s", q.ID)
		}
		summary = s
	}

	if summary == nil {
		t.Fatalf("expected completion summary after last answer")
	}
	if summary.Score != 5 || summary.TotalQuestions != 5 || summary.Percentage != 100 {
		t.Fatalf("expected 5/5 at 100%%, got %+v", summary)
	}
	if !summary.Persisted {
		t.Fatalf("expected summary to be persisted")
	}

	quiz, results, err := stores.results.QuizWithResults(ctx, "u1", summary.QuizID)
	if err != nil {
		t.Fatalf("load persisted quiz: %v", err)
	}
	if quiz.Score != 5 || quiz.Percentage != 100 {
		t.Fatalf("persisted quiz mismatch: %+v", quiz)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 result rows, got %d", len(results))
	}
	for _, r := range results {
		if !r.IsCorrect {
			t.Fatalf("expected all results correct, got %+v", r)
		}
	}

	// Completed sessions are discarded.
	if _, _, err := service.SubmitAnswer(ctx, session.ID(), "", "x"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after completion, got %v", err)
	}
}

func TestStartQuizInsufficientContent(t *testing.T) {
	service, _ := newTestService(seedCards(4))
	if _, err := service.StartQuiz(context.Background(), "u1"); !errors.Is(err, domain.ErrInsufficientContent) {
		t.Fatalf("expected ErrInsufficientContent, got %v", err)
	}
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	service, _ := newTestService(seedCards(5))
	_, _, err := service.SubmitAnswer(context.Background(), "missing", "q", "a")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitAnswerQuestionMismatch(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(seedCards(5))
	session, err := service.StartQuiz(ctx, "u1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	_, _, err = service.SubmitAnswer(ctx, session.ID(), "not-the-current-question", "a")
	if !errors.Is(err, domain.ErrQuestionMismatch) {
		t.Fatalf("expected ErrQuestionMismatch, got %v", err)
	}
}

func TestAbandonDiscardsWithoutPersistence(t *testing.T) {
	ctx := context.Background()
	service, stores := newTestService(seedCards(5))

	session, err := service.StartQuiz(ctx, "u1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	q := session.Questions()[0]
	if _, _, err := service.SubmitAnswer(ctx, session.ID(), q.ID, q.CorrectAnswer); err != nil {
		t.Fatalf("submit: %v", err)
	}

	service.Abandon(session.ID())

	if _, _, err := service.SubmitAnswer(ctx, session.ID(), "", "x"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after abandon, got %v", err)
	}
	quizzes, err := stores.results.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 0 {
		t.Fatalf("abandoned session must not persist, got %d quizzes", len(quizzes))
	}
}

func TestRetakeUpdatesResultsInPlace(t *testing.T) {
	ctx := context.Background()
	service, stores := newTestService(seedCards(5))

	// First run: answer everything wrong.
	session, err := service.StartQuiz(ctx, "u1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	var summary *domain.SessionSummary
	for _, q := range session.Questions() {
		_, s, err := service.SubmitAnswer(ctx, session.ID(), q.ID, "definitely wrong")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		summary = s
	}
	if summary.Score != 0 || summary.Percentage != 0 {
		t.Fatalf("expected 0 score on wrong run, got %+v", summary)
	}

	// Retake: answer everything right.
	retake, err := service.StartRetake(ctx, "u1", summary.QuizID)
	if err != nil {
		t.Fatalf("start retake: %v", err)
	}
	var retakeSummary *domain.SessionSummary
	for _, q := range retake.Questions() {
		_, s, err := service.SubmitAnswer(ctx, retake.ID(), q.ID, q.CorrectAnswer)
		if err != nil {
			t.Fatalf("retake submit: %v", err)
		}
		retakeSummary = s
	}
	if retakeSummary.QuizID != summary.QuizID {
		t.Fatalf("retake must reuse the quiz id, got %s vs %s", retakeSummary.QuizID, summary.QuizID)
	}

	quiz, results, err := stores.results.QuizWithResults(ctx, "u1", summary.QuizID)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if quiz.Score != 5 || quiz.Percentage != 100 {
		t.Fatalf("expected corrected header 5/100, got %+v", quiz)
	}
	for _, r := range results {
		if !r.IsCorrect || r.UserAnswer != r.CorrectAnswer {
			t.Fatalf("expected rewritten result row, got %+v", r)
		}
	}

	quizzes, err := service.QuizHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(quizzes) != 1 {
		t.Fatalf("retake must not create a second quiz, got %d", len(quizzes))
	}
}

func TestRetakeUnknownQuiz(t *testing.T) {
	service, _ := newTestService(seedCards(5))
	if _, err := service.StartRetake(context.Background(), "u1", "no-such-quiz"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestPerformanceFeedsFromAnswers(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(seedCards(5))

	session, err := service.StartQuiz(ctx, "u1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	questions := session.Questions()
	// First answer correct, the rest wrong.
	if _, _, err := service.SubmitAnswer(ctx, session.ID(), questions[0].ID, questions[0].CorrectAnswer); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rows, err := service.TopicPerformance(ctx, "u1")
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one topic row, got %d", len(rows))
	}
	first := rows[0]
	if first.TotalAttempts != 1 || first.CorrectAttempts != 1 || first.AccuracyPercentage != 100 || first.StrengthLevel != domain.StrengthStrong {
		t.Fatalf("first correct answer must create a strong row, got %+v", first)
	}

	for _, q := range questions[1:] {
		if _, _, err := service.SubmitAnswer(ctx, session.ID(), q.ID, "wrong"); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	rows, err = service.TopicPerformance(ctx, "u1")
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	agg := rows[0]
	if agg.TotalAttempts != 5 || agg.CorrectAttempts != 1 {
		t.Fatalf("expected 5 attempts / 1 correct, got %+v", agg)
	}
	if agg.AccuracyPercentage != 20 || agg.StrengthLevel != domain.StrengthWeak {
		t.Fatalf("expected 20%% weak, got %+v", agg)
	}

	summary, err := service.PerformanceSummary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.QuizzesTaken != 1 || summary.TotalAttempts != 5 || summary.CorrectAttempts != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.WeakTopics) != 1 || summary.WeakTopics[0] != "Biology" {
		t.Fatalf("expected Biology weak, got %+v", summary.WeakTopics)
	}
}

// failingResultStore rejects every completion write while counting attempts.
type failingResultStore struct {
	*memory.ResultStore
	saves int
}

func (s *failingResultStore) SaveCompleted(context.Context, domain.Quiz, []domain.QuestionResult) error {
	s.saves++
	return errors.New("store down")
}

func TestCompletionSurvivesResultStoreOutage(t *testing.T) {
	ctx := context.Background()
	store := &failingResultStore{ResultStore: memory.NewResultStore()}
	service := app.NewQuizService(
		memory.NewSeededFlashcardRepository(seedCards(5)),
		memory.NewSessionStore(),
		store,
		memory.NewPerformanceRepository(),
		app.DefaultQuestionCount,
	)
	app.UseImmediatePersistRetries(service)

	session, err := service.StartQuiz(ctx, "u1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	var summary *domain.SessionSummary
	for _, q := range session.Questions() {
		_, s, err := service.SubmitAnswer(ctx, session.ID(), q.ID, q.CorrectAnswer)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		summary = s
	}

	// The client still gets the locally computed summary, flagged unpersisted.
	if summary == nil {
		t.Fatalf("expected completion summary despite store outage")
	}
	if summary.Persisted {
		t.Fatalf("expected Persisted=false, got %+v", summary)
	}
	if summary.Score != 5 || summary.Percentage != 100 {
		t.Fatalf("expected 5/100 summary, got %+v", summary)
	}

	if store.saves != app.PersistAttempts {
		t.Fatalf("expected %d save attempts, got %d", app.PersistAttempts, store.saves)
	}

	quizzes, err := store.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 0 {
		t.Fatalf("failed save must not leave quizzes behind, got %d", len(quizzes))
	}

	// The session is still discarded after completion.
	if _, _, err := service.SubmitAnswer(ctx, session.ID(), "", "x"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after completion, got %v", err)
	}
}

// failingPerformanceRepo rejects every aggregate update.
type failingPerformanceRepo struct {
	*memory.PerformanceRepository
}

func (r *failingPerformanceRepo) RecordAnswer(context.Context, string, string, string, bool) error {
	return errors.New("analytics down")
}

func TestSubmitAnswerSurvivesAnalyticsOutage(t *testing.T) {
	ctx := context.Background()
	results := memory.NewResultStore()
	service := app.NewQuizService(
		memory.NewSeededFlashcardRepository(seedCards(5)),
		memory.NewSessionStore(),
		results,
		&failingPerformanceRepo{PerformanceRepository: memory.NewPerformanceRepository()},
		app.DefaultQuestionCount,
	)

	session, err := service.StartQuiz(ctx, "u1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	var summary *domain.SessionSummary
	for _, q := range session.Questions() {
		outcome, s, err := service.SubmitAnswer(ctx, session.ID(), q.ID, q.CorrectAnswer)
		if err != nil {
			t.Fatalf("submit with analytics down: %v", err)
		}
		if !outcome.Correct {
			t.Fatalf("expected correct outcome for %s", q.ID)
		}
		summary = s
	}

	// Completion and persistence are unaffected by the analytics outage.
	if summary == nil || summary.Score != 5 || !summary.Persisted {
		t.Fatalf("expected persisted 5/5 summary, got %+v", summary)
	}
	if _, rows, err := results.QuizWithResults(ctx, "u1", summary.QuizID); err != nil || len(rows) != 5 {
		t.Fatalf("expected 5 persisted result rows, got %d (err %v)", len(rows), err)
	}
}

type testStores struct {
	flashcards  *memory.FlashcardRepository
	sessions    *memory.SessionStore
	results     *memory.ResultStore
	performance *memory.PerformanceRepository
}

func newTestService(cards []domain.Flashcard) (*app.QuizService, testStores) {
	stores := testStores{
		flashcards:  memory.NewSeededFlashcardRepository(cards),
		sessions:    memory.NewSessionStore(),
		results:     memory.NewResultStore(),
		performance: memory.NewPerformanceRepository(),
	}
	service := app.NewQuizService(stores.flashcards, stores.sessions, stores.results, stores.performance, app.DefaultQuestionCount)
	return service, stores
}

func seedCards(n int) []domain.Flashcard {
	cards := make([]domain.Flashcard, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, domain.Flashcard{
			ID:       fmt.Sprintf("card-%d", i),
			OwnerID:  "u1",
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
			Subject:  "Biology",
		})
	}
	return cards
}
