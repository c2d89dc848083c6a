package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
)

// WSHandler exposes the authoring manager over a websocket: inbound frames
// are actions, outbound frames are state snapshots and notifications.
type WSHandler struct {
	manager  *app.Manager
	upgrader websocket.Upgrader
}

func NewWSHandler(manager *app.Manager) *WSHandler {
	return &WSHandler{
		manager: manager,
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

type stackPayload struct {
	SubjectID string `json:"subjectId"`
}

type searchPayload struct {
	Query string `json:"query"`
}

type idPayload struct {
	ID string `json:"id"`
}

type subjectPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and bridges the connection to the manager:
// one writer goroutine serializes frames, one relay forwards manager events,
// and the read loop dispatches actions until the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.manager.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundEvent(event):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, &inbound, send)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, inbound *inboundMessage, send chan<- outboundMessage[any]) {
	sendError := func(message string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
	}

	switch inbound.Type {
	case "selectStack":
		var payload stackPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError("invalid selectStack payload")
			return
		}
		h.manager.SelectStack(payload.SubjectID)
	case "selectUncategorized":
		h.manager.SelectUncategorized()
	case "back":
		h.manager.BackToStacks()
	case "search":
		var payload searchPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError("invalid search payload")
			return
		}
		h.manager.SetSearch(payload.Query)
	case "openEditor":
		var payload idPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError("invalid openEditor payload")
				return
			}
		}
		draft, err := h.manager.OpenEditor(payload.ID)
		if err != nil {
			sendError(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "editor", Payload: draft.Quiz()}
	case "closeEditor":
		h.manager.CloseEditor()
	case "saveQuiz":
		var quiz domain.Quiz
		if err := json.Unmarshal(inbound.Payload, &quiz); err != nil {
			sendError("invalid quiz payload")
			return
		}
		if err := h.manager.SaveQuiz(r.Context(), quiz); err != nil {
			sendError(err.Error())
		}
	case "deleteQuiz":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError("invalid deleteQuiz payload")
			return
		}
		if err := h.manager.DeleteQuiz(r.Context(), payload.ID); err != nil {
			sendError(err.Error())
		}
	case "createSubject":
		var payload subjectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError("invalid createSubject payload")
			return
		}
		if err := h.manager.CreateSubject(r.Context(), subjectForm(payload)); err != nil {
			sendError(err.Error())
		}
	case "updateSubject":
		var payload subjectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError("invalid updateSubject payload")
			return
		}
		if err := h.manager.UpdateSubject(r.Context(), payload.ID, subjectForm(payload)); err != nil {
			sendError(err.Error())
		}
	case "deleteSubject":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError("invalid deleteSubject payload")
			return
		}
		if err := h.manager.DeleteSubject(r.Context(), payload.ID); err != nil {
			sendError(err.Error())
		}
	case "refresh":
		if err := h.manager.Load(r.Context()); err != nil {
			sendError(err.Error())
		}
	default:
		sendError("unsupported message type")
	}
}

func outboundEvent(event app.Event) outboundMessage[any] {
	if event.Kind == app.EventNotification {
		return outboundMessage[any]{Type: "notification", Payload: event.Notification}
	}
	return outboundMessage[any]{Type: "state", Payload: event.State}
}

func subjectForm(payload subjectPayload) domain.SubjectForm {
	return domain.SubjectForm{
		Title:       payload.Title,
		Description: payload.Description,
		Icon:        payload.Icon,
	}
}
