package domain

import "errors"

var (
	// ErrPresentation is returned when a channel cannot attach a selectable option to a message.
	ErrPresentation = errors.New("presentation failed")
	// ErrMessageNotFound is returned when replying to a message that no longer exists.
	ErrMessageNotFound = errors.New("message not found")
	// ErrSessionActive is returned when a channel already hosts a running session.
	ErrSessionActive = errors.New("trivia session already running in channel")
	// ErrInvalidQuestion indicates question content failed validation.
	ErrInvalidQuestion = errors.New("invalid question")
)
