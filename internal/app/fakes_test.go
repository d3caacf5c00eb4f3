package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trivia-service/internal/domain"
)

type fakeStore struct {
	questions []domain.Question
	fillers   []string
	good      []string
	bad       []string
	err       error

	next  int
	draws int
}

// RandomQuestion cycles through the configured questions so tests stay deterministic.
func (s *fakeStore) RandomQuestion(context.Context) (domain.Question, bool, error) {
	s.draws++
	if s.err != nil {
		return domain.Question{}, false, s.err
	}
	if len(s.questions) == 0 {
		return domain.Question{}, false, nil
	}
	q := s.questions[s.next%len(s.questions)]
	s.next++
	return q, true, nil
}

func (s *fakeStore) FillerAnswers(context.Context) ([]string, error) {
	return s.fillers, nil
}

func (s *fakeStore) GoodFlavor(context.Context) ([]string, error) {
	return s.good, nil
}

func (s *fakeStore) BadFlavor(context.Context) ([]string, error) {
	return s.bad, nil
}

type action int

const (
	answerCorrect action = iota
	answerWrong
	answerTimeout
	answerBlock
)

type presentation struct {
	prompt  string
	options []string
	symbols []string
}

// fakeChannel plays a scripted player. Unscripted rounds time out.
type fakeChannel struct {
	answers   map[string]string
	script    []action
	failReply bool

	presented []presentation
	posts     []string
	replies   []string
	waits     []time.Duration
}

func (c *fakeChannel) PostMessageWithOptions(_ context.Context, text string, options []string) (domain.MessageHandle, error) {
	prompt, opts := parseQuestion(text)
	c.presented = append(c.presented, presentation{prompt: prompt, options: opts, symbols: options})
	return domain.MessageHandle{ID: fmt.Sprintf("m%d", len(c.presented))}, nil
}

func (c *fakeChannel) AwaitSelection(ctx context.Context, _ domain.MessageHandle, options []string, _ string, timeout time.Duration) (domain.Selection, error) {
	c.waits = append(c.waits, timeout)
	round := len(c.presented) - 1
	act := answerTimeout
	if round < len(c.script) {
		act = c.script[round]
	}
	last := c.presented[round]
	correct := -1
	for i, opt := range last.options {
		if opt == c.answers[last.prompt] {
			correct = i
		}
	}
	switch act {
	case answerCorrect:
		return domain.Selection{Index: correct}, nil
	case answerWrong:
		return domain.Selection{Index: (correct + 1) % len(options)}, nil
	case answerBlock:
		<-ctx.Done()
		return domain.Selection{}, ctx.Err()
	}
	return domain.Selection{TimedOut: true}, nil
}

func (c *fakeChannel) PostMessage(_ context.Context, text string) error {
	c.posts = append(c.posts, text)
	return nil
}

func (c *fakeChannel) ReplyTo(_ context.Context, _ domain.MessageHandle, text string) error {
	if c.failReply {
		return domain.ErrMessageNotFound
	}
	c.replies = append(c.replies, text)
	return nil
}

// respondingChannel answers the first question through RespondWithOptions.
type respondingChannel struct {
	*fakeChannel
	fail      bool
	responses int
}

func (c *respondingChannel) RespondWithOptions(ctx context.Context, text string, options []string) (domain.MessageHandle, error) {
	c.responses++
	if c.fail {
		return domain.MessageHandle{}, fmt.Errorf("add reaction %s: %w", options[0], domain.ErrPresentation)
	}
	return c.fakeChannel.PostMessageWithOptions(ctx, text, options)
}

var errStoreDown = errors.New("store down")

// parseQuestion pulls the prompt and option texts back out of a rendered question.
func parseQuestion(text string) (string, []string) {
	var prompt string
	var options []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "> ") {
			prompt = strings.TrimPrefix(line, "> ")
			continue
		}
		if len(line) > 6 && strings.HasPrefix(line, "**") && line[3:6] == ".**" {
			options = append(options, line[7:])
		}
	}
	return prompt, options
}
