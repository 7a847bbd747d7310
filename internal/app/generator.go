package app

import (
	"math/rand"

	"github.com/google/uuid"

	"studybuddy-quiz-service/internal/domain"
)

const (
	// MinFlashcards is the smallest collection a quiz can be generated from.
	MinFlashcards = 5
	// DefaultQuestionCount caps a generated quiz when no override is configured.
	DefaultQuestionCount = 10

	maxOptions = 4
)

// GenerateQuiz builds up to max shuffled multiple-choice questions from the
// owner's flashcard collection. Each question's options are the card's answer
// plus up to three distinct answers sampled from the other cards. Returns
// domain.ErrInsufficientContent when fewer than MinFlashcards exist.
func GenerateQuiz(cards []domain.Flashcard, max int, rnd *rand.Rand) ([]domain.QuizQuestion, error) {
	if len(cards) < MinFlashcards {
		return nil, domain.ErrInsufficientContent
	}
	if max <= 0 {
		max = DefaultQuestionCount
	}

	shuffled := make([]domain.Flashcard, len(cards))
	copy(shuffled, cards)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := max
	if len(shuffled) < n {
		n = len(shuffled)
	}

	questions := make([]domain.QuizQuestion, 0, n)
	for _, card := range shuffled[:n] {
		questions = append(questions, domain.QuizQuestion{
			ID:            uuid.NewString(),
			SourceCardID:  card.ID,
			Prompt:        card.Question,
			CorrectAnswer: card.Answer,
			Options:       buildOptions(card.ID, card.Answer, cardAnswers(shuffled), rnd),
			Topic:         card.Topic(),
		})
	}
	return questions, nil
}

// RetakeQuestions rebuilds a question set from persisted quiz results so a
// stored quiz can be replayed. Question IDs reuse the result row IDs, which
// lets completion rewrite the same rows in place.
func RetakeQuestions(results []domain.QuestionResult, rnd *rand.Rand) []domain.QuizQuestion {
	pool := make([]answerSource, 0, len(results))
	for _, r := range results {
		pool = append(pool, answerSource{id: r.ID, answer: r.CorrectAnswer})
	}

	questions := make([]domain.QuizQuestion, 0, len(results))
	for _, r := range results {
		questions = append(questions, domain.QuizQuestion{
			ID:            r.ID,
			Prompt:        r.QuestionText,
			CorrectAnswer: r.CorrectAnswer,
			Options:       buildOptions(r.ID, r.CorrectAnswer, pool, rnd),
			Topic:         r.Topic,
		})
	}
	return questions
}

type answerSource struct {
	id     string
	answer string
}

func cardAnswers(cards []domain.Flashcard) []answerSource {
	sources := make([]answerSource, 0, len(cards))
	for _, c := range cards {
		sources = append(sources, answerSource{id: c.ID, answer: c.Answer})
	}
	return sources
}

// buildOptions assembles the shuffled option list for one question: up to
// three distinct sibling answers plus the correct one. Duplicates are never
// emitted, so the list may be shorter than four when siblings share text.
func buildOptions(selfID, correct string, pool []answerSource, rnd *rand.Rand) []string {
	seen := map[string]struct{}{correct: {}}
	distractors := make([]string, 0, len(pool))
	for _, src := range pool {
		if src.id == selfID {
			continue
		}
		if _, dup := seen[src.answer]; dup {
			continue
		}
		seen[src.answer] = struct{}{}
		distractors = append(distractors, src.answer)
	}

	rnd.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	if len(distractors) > maxOptions-1 {
		distractors = distractors[:maxOptions-1]
	}

	options := append(distractors, correct)
	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// dominantTopic picks the most frequent topic across the question set; used
// as the quiz subject. Ties resolve to the earliest question's topic.
func dominantTopic(questions []domain.QuizQuestion) string {
	if len(questions) == 0 {
		return domain.DefaultTopic
	}
	counts := make(map[string]int, len(questions))
	best := questions[0].Topic
	for _, q := range questions {
		counts[q.Topic]++
		if counts[q.Topic] > counts[best] {
			best = q.Topic
		}
	}
	return best
}
