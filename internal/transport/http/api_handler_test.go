package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studybuddy-quiz-service/internal/domain"
)

func TestFlashcardEndpoints(t *testing.T) {
	service := newTestService(t)
	mux := http.NewServeMux()
	NewAPIHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/flashcards", "application/json",
		strings.NewReader(`{"ownerId":"u2","question":"2+2?","answer":"4","subject":"Math"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created domain.Flashcard
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned id and timestamp, got %+v", created)
	}

	listResp, err := http.Get(server.URL + "/api/flashcards?userId=u2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer listResp.Body.Close()
	var cards []domain.Flashcard
	if err := json.NewDecoder(listResp.Body).Decode(&cards); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(cards) != 1 || cards[0].Question != "2+2?" {
		t.Fatalf("unexpected cards %+v", cards)
	}
}

func TestFlashcardValidation(t *testing.T) {
	service := newTestService(t)
	mux := http.NewServeMux()
	NewAPIHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/flashcards", "application/json",
		strings.NewReader(`{"ownerId":"u2"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyticsRequiresUser(t *testing.T) {
	service := newTestService(t)
	mux := http.NewServeMux()
	NewAPIHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/analytics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyticsSummaryEmpty(t *testing.T) {
	service := newTestService(t)
	mux := http.NewServeMux()
	NewAPIHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/analytics/summary?userId=u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var summary domain.PerformanceSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.TotalAttempts != 0 || summary.OverallAccuracy != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}
