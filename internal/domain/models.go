package domain

import "time"

// Difficulty is an optional flashcard rating set at creation time.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultTopic is assigned to flashcards created without a subject.
const DefaultTopic = "General"

// Flashcard is a user-owned question/answer study unit.
type Flashcard struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"ownerId"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Subject        string     `json:"subject,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	SourceDocument string     `json:"sourceDocument,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Topic returns the card's subject, defaulting to DefaultTopic when unset.
func (f Flashcard) Topic() string {
	if f.Subject == "" {
		return DefaultTopic
	}
	return f.Subject
}

// QuizQuestion is an ephemeral multiple-choice question derived from a
// flashcard. Options holds the correct answer plus up to three distinct
// distractors, already shuffled. The correct answer is never serialized
// toward the client.
type QuizQuestion struct {
	ID            string   `json:"id"`
	SourceCardID  string   `json:"sourceCardId"`
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"-"`
	Options       []string `json:"options"`
	Topic         string   `json:"topic"`
}

// Answer records the outcome of one answered question within a session.
type Answer struct {
	QuestionID   string `json:"questionId"`
	ChosenAnswer string `json:"chosenAnswer"`
	IsCorrect    bool   `json:"isCorrect"`
}

// Quiz is the persisted summary of one completed practice session.
type Quiz struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	Title            string    `json:"title"`
	Subject          string    `json:"subject"`
	TotalQuestions   int       `json:"totalQuestions"`
	Score            int       `json:"score"`
	Percentage       float64   `json:"percentage"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	QuizType         string    `json:"quizType"`
	CreatedAt        time.Time `json:"createdAt"`
}

// QuestionResult is the persisted per-question outcome tied to a Quiz.
// The retake flow rewrites UserAnswer/IsCorrect in place.
type QuestionResult struct {
	ID            string `json:"id"`
	QuizID        string `json:"quizId"`
	OwnerID       string `json:"ownerId"`
	Topic         string `json:"topic"`
	QuestionText  string `json:"questionText"`
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer,omitempty"`
	IsCorrect     bool   `json:"isCorrect"`
}

// StrengthLevel classifies topic mastery derived from accuracy percentage.
type StrengthLevel string

const (
	StrengthWeak     StrengthLevel = "weak"
	StrengthModerate StrengthLevel = "moderate"
	StrengthStrong   StrengthLevel = "strong"
)

// Accuracy thresholds for strength classification.
const (
	StrongThreshold = 70
	WeakThreshold   = 40
)

// StrengthFor maps an accuracy percentage to a strength level.
func StrengthFor(accuracy float64) StrengthLevel {
	switch {
	case accuracy >= StrongThreshold:
		return StrengthStrong
	case accuracy < WeakThreshold:
		return StrengthWeak
	default:
		return StrengthModerate
	}
}

// TopicPerformance is the running mastery aggregate for one (owner, topic).
type TopicPerformance struct {
	ID                 string        `json:"id"`
	OwnerID            string        `json:"ownerId"`
	Subject            string        `json:"subject"`
	Topic              string        `json:"topic"`
	TotalAttempts      int           `json:"totalAttempts"`
	CorrectAttempts    int           `json:"correctAttempts"`
	AccuracyPercentage float64       `json:"accuracyPercentage"`
	StrengthLevel      StrengthLevel `json:"strengthLevel"`
	LastUpdated        time.Time     `json:"lastUpdated"`
}

// PerformanceSummary aggregates an owner's quiz history and topic strengths.
type PerformanceSummary struct {
	OwnerID         string   `json:"ownerId"`
	QuizzesTaken    int      `json:"quizzesTaken"`
	TotalAttempts   int      `json:"totalAttempts"`
	CorrectAttempts int      `json:"correctAttempts"`
	OverallAccuracy float64  `json:"overallAccuracy"`
	StrongTopics    []string `json:"strongTopics"`
	ModerateTopics  []string `json:"moderateTopics"`
	WeakTopics      []string `json:"weakTopics"`
}

// SessionSummary is returned to the client when a session completes.
// Persisted is false when the durable write was lost after retries.
type SessionSummary struct {
	QuizID           string  `json:"quizId"`
	Title            string  `json:"title"`
	Subject          string  `json:"subject"`
	TotalQuestions   int     `json:"totalQuestions"`
	Score            int     `json:"score"`
	Percentage       float64 `json:"percentage"`
	TimeTakenSeconds int     `json:"timeTakenSeconds"`
	Persisted        bool    `json:"persisted"`
}

// AnswerOutcome reports the result of a single submission back to the client.
type AnswerOutcome struct {
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
	Answered      int    `json:"answered"`
	Remaining     int    `json:"remaining"`
}
