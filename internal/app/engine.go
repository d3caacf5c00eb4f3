package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"trivia-service/internal/domain"
)

const (
	// DefaultAnswerTimeout is how long a player has to react to a question.
	DefaultAnswerTimeout = 60 * time.Second
	// DefaultSelectionAttempts bounds the draws spent looking for an unused question.
	DefaultSelectionAttempts = 10
)

// QuestionStore supplies questions and the shared answer/flavor pools.
type QuestionStore interface {
	// RandomQuestion draws a question; ok is false when the store is empty.
	RandomQuestion(ctx context.Context) (q domain.Question, ok bool, err error)
	FillerAnswers(ctx context.Context) ([]string, error)
	GoodFlavor(ctx context.Context) ([]string, error)
	BadFlavor(ctx context.Context) ([]string, error)
}

// Channel is the messaging transport a session is played over.
type Channel interface {
	// PostMessageWithOptions publishes text with one selectable option per entry.
	// It returns an error wrapping domain.ErrPresentation when an option cannot be attached.
	PostMessageWithOptions(ctx context.Context, text string, options []string) (domain.MessageHandle, error)
	// AwaitSelection blocks until userID selects one of options on the message or the timeout elapses.
	AwaitSelection(ctx context.Context, h domain.MessageHandle, options []string, userID string, timeout time.Duration) (domain.Selection, error)
	PostMessage(ctx context.Context, text string) error
	ReplyTo(ctx context.Context, h domain.MessageHandle, text string) error
}

// Responder is implemented by channels that answer the action which started
// a session differently from a plain post. It is used for the first question only.
type Responder interface {
	RespondWithOptions(ctx context.Context, text string, options []string) (domain.MessageHandle, error)
}

// Engine runs trivia sessions against a question store.
type Engine struct {
	store    QuestionStore
	timeout  time.Duration
	attempts int
	newRand  func() *rand.Rand
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithAnswerTimeout overrides how long each question waits for a reaction.
func WithAnswerTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithSelectionAttempts overrides the unused-question draw bound.
func WithSelectionAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithSeed makes every session's randomness deterministic (tests).
func WithSeed(seed int64) EngineOption {
	return func(e *Engine) {
		e.newRand = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	}
}

func NewEngine(store QuestionStore, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		timeout:  DefaultAnswerTimeout,
		attempts: DefaultSelectionAttempts,
		newRand:  func() *rand.Rand { return rand.New(rand.NewSource(rand.Int63())) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session is the state of one running trivia session. It is owned by the
// goroutine executing RunSession and never shared.
type Session struct {
	id       string
	playerID string
	score    int
	used     map[string]struct{}
	asked    []string
	phase    domain.Phase
	rnd      *rand.Rand
}

func newSession(playerID string, rnd *rand.Rand) *Session {
	return &Session{
		id:       uuid.NewString(),
		playerID: playerID,
		used:     make(map[string]struct{}),
		phase:    domain.PhaseSelecting,
		rnd:      rnd,
	}
}

func (s *Session) markUsed(q domain.Question) {
	s.used[q.Key()] = struct{}{}
	s.asked = append(s.asked, q.Key())
}

func (s *Session) result(reason domain.EndReason) domain.Result {
	return domain.Result{
		SessionID: s.id,
		PlayerID:  s.playerID,
		Score:     s.score,
		Asked:     s.asked,
		Reason:    reason,
		Phase:     s.phase,
	}
}

// round holds the per-question material fetched after selection.
type round struct {
	set  domain.AnswerSet
	good []string
	bad  []string
}

// RunSession plays questions for playerID over ch until content runs out,
// the player misses the deadline, or answers wrong. Store and transport
// failures are returned unmasked; cancelling ctx ends the session without a report.
func (e *Engine) RunSession(ctx context.Context, playerID string, ch Channel) (domain.Result, error) {
	sess := newSession(playerID, e.newRand())
	log.Printf("trivia session %s started for player %s", sess.id, playerID)

	reason, err := e.play(ctx, sess, ch)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Printf("trivia session %s aborted while %s: %v", sess.id, sess.phase, err)
			return sess.result(domain.EndAborted), err
		}
		log.Printf("trivia session %s failed while %s: %v", sess.id, sess.phase, err)
		return sess.result(reason), err
	}
	sess.phase = domain.PhaseEnded

	log.Printf("trivia session %s ended: reason=%s score=%d", sess.id, reason, sess.score)
	if sess.score > 0 {
		if err := ch.PostMessage(ctx, ReportMessage(sess.score)); err != nil {
			return sess.result(reason), fmt.Errorf("post report: %w", err)
		}
	}
	return sess.result(reason), nil
}

func (e *Engine) play(ctx context.Context, sess *Session, ch Channel) (domain.EndReason, error) {
	first := true
	for {
		sess.phase = domain.PhaseSelecting
		q, ok, err := e.selectQuestion(ctx, sess)
		if err != nil {
			return "", err
		}
		if !ok {
			log.Printf("trivia session %s: no more unique questions", sess.id)
			return domain.EndExhausted, nil
		}

		r, err := e.prepareRound(ctx, sess, q)
		if err != nil {
			return "", err
		}

		sess.phase = domain.PhasePresenting
		options := domain.OptionSymbols[:len(r.set.Options)]
		handle, err := e.present(ctx, ch, QuestionMessage(q.Prompt, r.set.Options), options, first)
		if err != nil {
			if first && errors.Is(err, domain.ErrPresentation) {
				log.Printf("trivia session %s: first question could not be offered: %v", sess.id, err)
				if perr := ch.PostMessage(ctx, TimesUpMessage); perr != nil {
					return "", fmt.Errorf("post fallback: %w", perr)
				}
				return domain.EndTimeout, nil
			}
			return "", fmt.Errorf("present question: %w", err)
		}
		first = false

		sess.phase = domain.PhaseAwaitingAnswer
		sel, err := ch.AwaitSelection(ctx, handle, options, sess.playerID, e.timeout)
		if err != nil {
			return "", fmt.Errorf("await selection: %w", err)
		}

		sess.phase = domain.PhaseScored
		outcome := scoreSelection(sel, r.set)
		log.Printf("trivia session %s: question answered outcome=%s", sess.id, outcome)

		switch outcome {
		case domain.OutcomeTimedOut:
			if err := e.reply(ctx, ch, handle, TimesUpMessage); err != nil {
				return "", err
			}
			return domain.EndTimeout, nil
		case domain.OutcomeCorrect:
			sess.score++
			good := pickFlavor(sess.rnd, r.good, fallbackGood)
			if err := e.reply(ctx, ch, handle, CorrectMessage(good)); err != nil {
				return "", err
			}
		case domain.OutcomeIncorrect:
			bad := pickFlavor(sess.rnd, r.bad, fallbackBad)
			if err := e.reply(ctx, ch, handle, IncorrectMessage(bad, r.set.CorrectIndex)); err != nil {
				return "", err
			}
			return domain.EndIncorrect, nil
		}
	}
}

// selectQuestion draws until it finds a question this session has not seen,
// giving up after the configured number of attempts.
func (e *Engine) selectQuestion(ctx context.Context, sess *Session) (domain.Question, bool, error) {
	for attempt := 0; attempt < e.attempts; attempt++ {
		q, ok, err := e.store.RandomQuestion(ctx)
		if err != nil {
			return domain.Question{}, false, fmt.Errorf("fetch question: %w", err)
		}
		if !ok {
			return domain.Question{}, false, nil
		}
		if _, used := sess.used[q.Key()]; used {
			continue
		}
		sess.markUsed(q)
		return q, true, nil
	}
	return domain.Question{}, false, nil
}

func (e *Engine) prepareRound(ctx context.Context, sess *Session, q domain.Question) (round, error) {
	fillers, err := e.store.FillerAnswers(ctx)
	if err != nil {
		return round{}, fmt.Errorf("fetch filler answers: %w", err)
	}
	good, err := e.store.GoodFlavor(ctx)
	if err != nil {
		return round{}, fmt.Errorf("fetch good flavor: %w", err)
	}
	bad, err := e.store.BadFlavor(ctx)
	if err != nil {
		return round{}, fmt.Errorf("fetch bad flavor: %w", err)
	}
	return round{
		set:  BuildAnswerSet(sess.rnd, q, fillers),
		good: good,
		bad:  bad,
	}, nil
}

func (e *Engine) present(ctx context.Context, ch Channel, text string, options []string, first bool) (domain.MessageHandle, error) {
	if responder, ok := ch.(Responder); ok && first {
		return responder.RespondWithOptions(ctx, text, options)
	}
	return ch.PostMessageWithOptions(ctx, text, options)
}

// reply answers the question message, posting fresh to the channel if the reply fails.
func (e *Engine) reply(ctx context.Context, ch Channel, h domain.MessageHandle, text string) error {
	err := ch.ReplyTo(ctx, h, text)
	if err == nil {
		return nil
	}
	log.Printf("reply to %s failed, falling back to channel post: %v", h.ID, err)
	if err := ch.PostMessage(ctx, text); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}
