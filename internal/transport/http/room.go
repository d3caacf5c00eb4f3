package http

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-service/internal/domain"
)

// reactionBuffer bounds qualifying reactions queued for one message.
const reactionBuffer = 16

type reaction struct {
	userID string
	option string
}

// waiter collects reactions for a message that offers options. userID is
// empty until a session starts waiting on the message.
type waiter struct {
	options []string
	userID  string
	ch      chan reaction
}

func (w *waiter) accepts(userID, option string) bool {
	if w.userID != "" && w.userID != userID {
		return false
	}
	for _, opt := range w.options {
		if opt == option {
			return true
		}
	}
	return false
}

// Hub tracks the rooms (chat channels) that currently have connected clients.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

func (h *Hub) join(channelID string, c *client) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[channelID]
	if !ok {
		room = newRoom(channelID)
		h.rooms[channelID] = room
	}
	room.add(c)
	return room
}

func (h *Hub) leave(channelID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[channelID]
	if !ok {
		return
	}
	if room.remove(c) == 0 {
		delete(h.rooms, channelID)
	}
}

// Room is one chat channel: every client in it sees every message posted to it.
type Room struct {
	id string

	mu       sync.Mutex
	clients  map[*client]struct{}
	messages map[string]struct{}

	// reactions for messages that offer options; removed once the wait on them ends
	waiters map[string]*waiter
}

func newRoom(id string) *Room {
	return &Room{
		id:       id,
		clients:  make(map[*client]struct{}),
		messages: make(map[string]struct{}),
		waiters:  make(map[string]*waiter),
	}
}

func (r *Room) add(c *client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
}

func (r *Room) remove(c *client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

// post publishes a message. Options must be known reaction symbols.
func (r *Room) post(text string, options []string, replyTo, interactionID string) (domain.MessageHandle, error) {
	if len(options) > len(domain.OptionSymbols) {
		return domain.MessageHandle{}, fmt.Errorf("%d options offered: %w", len(options), domain.ErrPresentation)
	}
	for _, opt := range options {
		if !isOptionSymbol(opt) {
			return domain.MessageHandle{}, fmt.Errorf("add reaction %q: %w", opt, domain.ErrPresentation)
		}
	}

	msg := messagePayload{
		ID:            uuid.NewString(),
		Text:          text,
		Options:       options,
		ReplyTo:       replyTo,
		InteractionID: interactionID,
	}

	r.mu.Lock()
	r.messages[msg.ID] = struct{}{}
	if len(options) > 0 {
		r.waiters[msg.ID] = &waiter{options: options, ch: make(chan reaction, reactionBuffer)}
	}
	r.broadcastLocked(outboundMessage[any]{Type: "message", Payload: msg})
	r.mu.Unlock()
	return domain.MessageHandle{ID: msg.ID}, nil
}

func (r *Room) reply(h domain.MessageHandle, text string) error {
	r.mu.Lock()
	_, ok := r.messages[h.ID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("reply to %s: %w", h.ID, domain.ErrMessageNotFound)
	}
	_, err := r.post(text, nil, h.ID, "")
	return err
}

// deleteMessage removes a message; later replies to it fail.
func (r *Room) deleteMessage(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return false
	}
	delete(r.messages, id)
	r.broadcastLocked(outboundMessage[any]{Type: "deleted", Payload: deletedPayload{MessageID: id}})
	return true
}

// react records a reaction. Only offered options from the waiting user are
// queued; the rest, and reactions on messages nobody waits on, are dropped.
func (r *Room) react(messageID, userID, option string) {
	r.mu.Lock()
	w, ok := r.waiters[messageID]
	if !ok || !w.accepts(userID, option) {
		r.mu.Unlock()
		return
	}
	ch := w.ch
	r.mu.Unlock()
	select {
	case ch <- reaction{userID: userID, option: option}:
	default:
	}
}

// await waits for userID to pick one of options on messageID. Reactions from
// anyone else, or on other symbols, are consumed and ignored without moving the deadline.
func (r *Room) await(ctx context.Context, messageID string, options []string, userID string, timeout time.Duration) (domain.Selection, error) {
	r.mu.Lock()
	w, ok := r.waiters[messageID]
	if ok {
		w.userID = userID
	}
	r.mu.Unlock()
	if !ok {
		return domain.Selection{}, fmt.Errorf("await %s: %w", messageID, domain.ErrMessageNotFound)
	}
	defer func() {
		r.mu.Lock()
		delete(r.waiters, messageID)
		r.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return domain.Selection{}, ctx.Err()
		case <-timer.C:
			return domain.Selection{TimedOut: true}, nil
		case re := <-w.ch:
			if re.userID != userID {
				continue
			}
			for i, opt := range options {
				if opt == re.option {
					return domain.Selection{Index: i}, nil
				}
			}
		}
	}
}

func (r *Room) broadcastLocked(msg outboundMessage[any]) {
	for c := range r.clients {
		c.deliver(msg)
	}
}

func isOptionSymbol(s string) bool {
	for _, sym := range domain.OptionSymbols {
		if s == sym {
			return true
		}
	}
	return false
}
