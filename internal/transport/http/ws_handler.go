package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"overlay-quiz-service/internal/app"
	"overlay-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.OverlayService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.OverlayService) *WSHandler {
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type startedPayload struct {
	PlaybackID string          `json:"playbackId"`
	Timeline   domain.Timeline `json:"timeline"`
}

type questionPayload struct {
	QuestionID       string         `json:"questionId"`
	TimeLimitSeconds float64        `json:"timeLimitSeconds,omitempty"`
	Outcome          domain.Outcome `json:"outcome,omitempty"`
	Award            *domain.Award  `json:"award,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// wsPresenter turns overlay signals into outbound messages. Sends give up
// once the connection is closing so a firing countdown never blocks teardown.
type wsPresenter struct {
	send chan<- outboundMessage[any]
	done <-chan struct{}
}

func (p *wsPresenter) emit(msgType string, payload questionPayload) {
	select {
	case p.send <- outboundMessage[any]{Type: msgType, Payload: payload}:
	case <-p.done:
	}
}

func (p *wsPresenter) QuestionArmed(questionID string) {
	p.emit("armed", questionPayload{QuestionID: questionID})
}

func (p *wsPresenter) QuestionPresented(questionID string, timeLimitSeconds float64) {
	p.emit("presented", questionPayload{QuestionID: questionID, TimeLimitSeconds: timeLimitSeconds})
}

func (p *wsPresenter) QuestionResolved(questionID string, outcome domain.Outcome, award domain.Award) {
	p.emit("resolved", questionPayload{QuestionID: questionID, Outcome: outcome, Award: &award})
}

func (p *wsPresenter) QuestionSkipped(questionID string) {
	p.emit("skipped", questionPayload{QuestionID: questionID, Outcome: domain.OutcomeSkipped})
}

// ServeWS upgrades HTTP requests to websockets and drives one playback per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	viewerID := r.URL.Query().Get("viewerId")
	if videoID == "" || viewerID == "" {
		http.Error(w, "missing videoId or viewerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	pb, err := h.service.StartPlayback(r.Context(), videoID, viewerID, &wsPresenter{send: send, done: closeSignals})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	// Single writer goroutine: presenter callbacks fire from timers as well as the read loop.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// keep draining so senders never block on a dead connection
				for range send {
				}
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{PlaybackID: pb.ID(), Timeline: pb.Timeline()}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "sample":
			var sample domain.PlaybackSample
			if err := json.Unmarshal(inbound.Payload, &sample); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid sample payload"}}
				continue
			}
			if err := h.service.OnSample(r.Context(), pb.ID(), sample); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := h.service.SubmitAnswer(r.Context(), pb.ID(), payload.QuestionID, payload.Value); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	summary, err := h.service.EndPlayback(context.Background(), pb.ID())
	if err == nil {
		select {
		case send <- outboundMessage[any]{Type: "summary", Payload: summary}:
		default:
		}
	}
	close(send)
	<-writerDone
}
