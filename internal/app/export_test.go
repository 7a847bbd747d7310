package app

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// PersistAttempts is the total number of completion writes the service makes
// before giving up: the initial attempt plus the retry cap.
const PersistAttempts = persistRetries + 1

// UseImmediatePersistRetries strips the delays from the persistence retry
// policy so failure tests run without sleeping. The attempt cap is unchanged.
func UseImmediatePersistRetries(s *QuizService) {
	s.persistPolicy = func(ctx context.Context) backoff.BackOff {
		return backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, persistRetries), ctx)
	}
}
