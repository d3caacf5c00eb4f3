package app

import (
	"context"

	"trivia-service/internal/domain"
)

// SessionRegistry guards a channel so it hosts at most one running session.
type SessionRegistry interface {
	// Acquire claims channelID, returning domain.ErrSessionActive if it is taken.
	// The returned release function must be called when the session ends.
	Acquire(ctx context.Context, channelID string) (release func(), err error)
}

// TriviaService contains the trivia use cases exposed to transports.
type TriviaService struct {
	engine   *Engine
	sessions SessionRegistry
}

func NewTriviaService(engine *Engine, sessions SessionRegistry) *TriviaService {
	return &TriviaService{engine: engine, sessions: sessions}
}

// Start runs a full session for playerID on channelID. It blocks until the session ends.
func (s *TriviaService) Start(ctx context.Context, channelID, playerID string, ch Channel) (domain.Result, error) {
	release, err := s.sessions.Acquire(ctx, channelID)
	if err != nil {
		return domain.Result{}, err
	}
	defer release()
	return s.engine.RunSession(ctx, playerID, ch)
}
