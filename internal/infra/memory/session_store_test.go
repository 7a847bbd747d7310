package memory

import (
	"testing"
	"time"

	"studybuddy-quiz-service/internal/app"
	"studybuddy-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := app.NewSessionWithClock("s1", "u1", []domain.QuizQuestion{{ID: "q1"}}, time.Now)

	store.Put(session)
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}
