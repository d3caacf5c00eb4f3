package http

import (
	"context"
	"time"

	"trivia-service/internal/domain"
)

// sessionChannel adapts a Room to app.Channel for one session. The first
// question is posted as the response to the start request that opened it.
type sessionChannel struct {
	room          *Room
	interactionID string
}

func (c *sessionChannel) RespondWithOptions(_ context.Context, text string, options []string) (domain.MessageHandle, error) {
	return c.room.post(text, options, "", c.interactionID)
}

func (c *sessionChannel) PostMessageWithOptions(_ context.Context, text string, options []string) (domain.MessageHandle, error) {
	return c.room.post(text, options, "", "")
}

func (c *sessionChannel) AwaitSelection(ctx context.Context, h domain.MessageHandle, options []string, userID string, timeout time.Duration) (domain.Selection, error) {
	return c.room.await(ctx, h.ID, options, userID, timeout)
}

func (c *sessionChannel) PostMessage(_ context.Context, text string) error {
	_, err := c.room.post(text, nil, "", "")
	return err
}

func (c *sessionChannel) ReplyTo(_ context.Context, h domain.MessageHandle, text string) error {
	return c.room.reply(h, text)
}
