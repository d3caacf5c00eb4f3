package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

// sendBuffer is the per-client outbound queue; slow clients lose the oldest queued message.
const sendBuffer = 32

type WSHandler struct {
	service  *app.TriviaService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.TriviaService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
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

type startPayload struct {
	RequestID string `json:"requestId"`
}

type reactPayload struct {
	MessageID string `json:"messageId"`
	Option    string `json:"option"`
}

type deletePayload struct {
	MessageID string `json:"messageId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type joinedPayload struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

type messagePayload struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	ReplyTo       string   `json:"replyTo,omitempty"`
	InteractionID string   `json:"interactionId,omitempty"`
}

type deletedPayload struct {
	MessageID string `json:"messageId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type client struct {
	userID string
	send   chan outboundMessage[any]
	done   chan struct{}
}

func newClient(userID string) *client {
	return &client{
		userID: userID,
		send:   make(chan outboundMessage[any], sendBuffer),
		done:   make(chan struct{}),
	}
}

// deliver never blocks: when the queue is full the oldest message is dropped.
func (c *client) deliver(msg outboundMessage[any]) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (c *client) fail(err error) {
	c.deliver(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
}

// ServeWS upgrades HTTP requests to websockets and joins the client to its channel's room.
// A "start" message runs a trivia session for the sending user; "react" selects an option.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	userID := r.URL.Query().Get("userId")
	if channelID == "" || userID == "" {
		http.Error(w, "missing channelId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := newClient(userID)
	room := h.hub.join(channelID, c)
	defer h.hub.leave(channelID, c)

	// sessions started from this connection end when it closes
	ctx, cancel := context.WithCancel(context.Background())
	var sessions sync.WaitGroup

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-c.send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-c.done:
				return
			}
		}
	}()

	c.deliver(outboundMessage[any]{Type: "joined", Payload: joinedPayload{ChannelID: channelID, UserID: userID}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					c.fail(errInvalidPayload)
					continue
				}
			}
			if payload.RequestID == "" {
				payload.RequestID = uuid.NewString()
			}
			sessions.Add(1)
			go func(interactionID string) {
				defer sessions.Done()
				h.runSession(ctx, room, c, interactionID)
			}(payload.RequestID)
		case "react":
			var payload reactPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.fail(errInvalidPayload)
				continue
			}
			room.react(payload.MessageID, userID, payload.Option)
		case "delete":
			var payload deletePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.fail(errInvalidPayload)
				continue
			}
			if !room.deleteMessage(payload.MessageID) {
				c.fail(domain.ErrMessageNotFound)
			}
		default:
			c.fail(errUnsupportedType)
		}
	}

	cancel()
	sessions.Wait()
	close(c.done)
	<-writerDone
}

func (h *WSHandler) runSession(ctx context.Context, room *Room, c *client, interactionID string) {
	ch := &sessionChannel{room: room, interactionID: interactionID}
	result, err := h.service.Start(ctx, room.id, c.userID, ch)
	if err != nil {
		log.Printf("trivia session in %s for %s: %v", room.id, c.userID, err)
		c.fail(err)
		return
	}
	c.deliver(outboundMessage[any]{Type: "sessionEnded", Payload: result})
}
