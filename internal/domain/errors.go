package domain

import "errors"

var (
	// ErrInsufficientContent is returned when a user has fewer flashcards
	// than a quiz needs.
	ErrInsufficientContent = errors.New("not enough flashcards to generate a quiz")
	// ErrSessionNotFound is returned when no active session matches the given id.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionCompleted is returned when answering a session that already finished.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrQuizNotFound indicates a persisted quiz could not be loaded for the owner.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionMismatch indicates a submitted question id is not the current one.
	ErrQuestionMismatch = errors.New("answer does not match the current question")
)
