package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"studybuddy-quiz-service/internal/app"
	"studybuddy-quiz-service/internal/domain"
)

// APIHandler exposes the JSON read models and the flashcard endpoints.
type APIHandler struct {
	service *app.QuizService
}

func NewAPIHandler(service *app.QuizService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the API routes on the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/analytics", h.analytics)
	mux.HandleFunc("/api/analytics/summary", h.summary)
	mux.HandleFunc("/api/quizzes", h.quizzes)
	mux.HandleFunc("/api/flashcards", h.flashcards)
}

func (h *APIHandler) analytics(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	rows, err := h.service.TopicPerformance(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *APIHandler) summary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	summary, err := h.service.PerformanceSummary(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *APIHandler) quizzes(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	quizzes, err := h.service.QuizHistory(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *APIHandler) flashcards(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ownerID, ok := requireOwner(w, r)
		if !ok {
			return
		}
		cards, err := h.service.Flashcards(r.Context(), ownerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, cards)

	case http.MethodPost:
		var card domain.Flashcard
		if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid flashcard payload"))
			return
		}
		if card.OwnerID == "" || card.Question == "" || card.Answer == "" {
			writeError(w, http.StatusBadRequest, errors.New("ownerId, question, and answer are required"))
			return
		}
		if err := h.service.CreateFlashcard(r.Context(), &card); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, card)

	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := r.URL.Query().Get("userId")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing userId"))
		return "", false
	}
	return ownerID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
