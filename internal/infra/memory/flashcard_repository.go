package memory

import (
	"context"
	"sync"

	"studybuddy-quiz-service/internal/domain"
)

// FlashcardRepository is an in-memory flashcard store keyed by owner
// (useful for tests and demo mode without Postgres).
type FlashcardRepository struct {
	mu    sync.RWMutex
	cards map[string][]domain.Flashcard
}

func NewFlashcardRepository() *FlashcardRepository {
	return &FlashcardRepository{cards: make(map[string][]domain.Flashcard)}
}

// NewSeededFlashcardRepository pre-populates the store, preserving order.
func NewSeededFlashcardRepository(cards []domain.Flashcard) *FlashcardRepository {
	repo := NewFlashcardRepository()
	for _, card := range cards {
		repo.cards[card.OwnerID] = append(repo.cards[card.OwnerID], card)
	}
	return repo
}

func (r *FlashcardRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Flashcard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cards := make([]domain.Flashcard, len(r.cards[ownerID]))
	copy(cards, r.cards[ownerID])
	return cards, nil
}

func (r *FlashcardRepository) Create(_ context.Context, card *domain.Flashcard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.OwnerID] = append(r.cards[card.OwnerID], *card)
	return nil
}
