package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"studybuddy-quiz-service/internal/domain"
)

// FlashcardSource is the backing store the cache falls through to.
type FlashcardSource interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Flashcard, error)
	Create(ctx context.Context, card *domain.Flashcard) error
}

// FlashcardCache is a cache-aside wrapper around a flashcard store. The
// per-owner collection is cached as JSON with a jittered TTL; cache fills go
// through singleflight so a burst of quiz starts hits Postgres once.
// Creates invalidate the owner's key.
type FlashcardCache struct {
	client *redis.Client
	source FlashcardSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewFlashcardCache(client *redis.Client, source FlashcardSource, ttl time.Duration) *FlashcardCache {
	return &FlashcardCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *FlashcardCache) ListByOwner(ctx context.Context, ownerID string) ([]domain.Flashcard, error) {
	key := c.key(ownerID)

	if cards, ok := c.fromCache(ctx, key); ok {
		return cards, nil
	}

	result, err, _ := c.sf.Do(ownerID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cards, ok := c.fromCache(ctx, key); ok {
			return cards, nil
		}

		cards, err := c.source.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(cards); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return cards, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Flashcard), nil
}

func (c *FlashcardCache) Create(ctx context.Context, card *domain.Flashcard) error {
	if err := c.source.Create(ctx, card); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(card.OwnerID)).Err()
	return nil
}

func (c *FlashcardCache) fromCache(ctx context.Context, key string) ([]domain.Flashcard, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var cards []domain.Flashcard
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, false
	}
	return cards, true
}

func (c *FlashcardCache) key(ownerID string) string {
	return "flashcards:" + ownerID
}

func (c *FlashcardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
