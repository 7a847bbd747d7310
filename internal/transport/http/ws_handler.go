package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"studybuddy-quiz-service/internal/app"
	"studybuddy-quiz-service/internal/domain"
)

// WSHandler drives interactive quiz sessions over a websocket. One
// connection owns at most one session at a time.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type retakePayload struct {
	QuizID string `json:"quizId"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type questionPayload struct {
	SessionID string              `json:"sessionId"`
	Index     int                 `json:"index"`
	Total     int                 `json:"total"`
	Question  domain.QuizQuestion `json:"question"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the quiz session loop. Dropping the
// connection mid-quiz abandons the session without persistence.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var session *app.Session
	defer func() {
		if session != nil {
			h.service.Abandon(session.ID())
		}
	}()

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "start":
			if session != nil {
				h.service.Abandon(session.ID())
			}
			session, err = h.service.StartQuiz(r.Context(), userID)
			if err != nil {
				session = nil
				if !trySend(send, writerDone, errorMessage(err)) {
					break readLoop
				}
				continue
			}
			if !trySend(send, writerDone, currentQuestionMessage(session)) {
				break readLoop
			}

		case "retake":
			var payload retakePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == "" {
				if !trySend(send, writerDone, errorMessage(errors.New("invalid retake payload"))) {
					break readLoop
				}
				continue
			}
			if session != nil {
				h.service.Abandon(session.ID())
			}
			session, err = h.service.StartRetake(r.Context(), userID, payload.QuizID)
			if err != nil {
				session = nil
				if !trySend(send, writerDone, errorMessage(err)) {
					break readLoop
				}
				continue
			}
			if !trySend(send, writerDone, currentQuestionMessage(session)) {
				break readLoop
			}

		case "answer":
			if session == nil {
				if !trySend(send, writerDone, errorMessage(domain.ErrSessionNotFound)) {
					break readLoop
				}
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !trySend(send, writerDone, errorMessage(errors.New("invalid answer payload"))) {
					break readLoop
				}
				continue
			}
			outcome, summary, err := h.service.SubmitAnswer(r.Context(), session.ID(), payload.QuestionID, payload.Answer)
			if err != nil {
				if !trySend(send, writerDone, errorMessage(err)) {
					break readLoop
				}
				continue
			}
			if !trySend(send, writerDone, outboundMessage[any]{Type: "answerResult", Payload: outcome}) {
				break readLoop
			}
			if summary != nil {
				if !trySend(send, writerDone, outboundMessage[any]{Type: "completed", Payload: summary}) {
					break readLoop
				}
				session = nil
				continue
			}
			if !trySend(send, writerDone, currentQuestionMessage(session)) {
				break readLoop
			}

		case "abandon":
			if session != nil {
				h.service.Abandon(session.ID())
				session = nil
			}
			if !trySend(send, writerDone, outboundMessage[any]{Type: "abandoned", Payload: struct{}{}}) {
				break readLoop
			}

		default:
			if !trySend(send, writerDone, errorMessage(errors.New("unsupported message type"))) {
				break readLoop
			}
		}
	}

	close(send)
	<-writerDone
}

// trySend queues msg for the writer goroutine. It returns false once the
// writer has exited on a write error, so the read loop never blocks on a
// full send buffer nobody drains.
func trySend(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func currentQuestionMessage(session *app.Session) outboundMessage[any] {
	question, ok := session.CurrentQuestion()
	if !ok {
		return errorMessage(domain.ErrSessionCompleted)
	}
	total := len(session.Questions())
	index := 0
	for i, q := range session.Questions() {
		if q.ID == question.ID {
			index = i
			break
		}
	}
	return outboundMessage[any]{Type: "question", Payload: questionPayload{
		SessionID: session.ID(),
		Index:     index,
		Total:     total,
		Question:  question,
	}}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
