package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

func scenarioStore() *fakeStore {
	return &fakeStore{
		questions: []domain.Question{
			{Prompt: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Lyon"}, Difficulty: domain.DifficultyEasy},
			{Prompt: "Capital of Germany?", CorrectAnswer: "Berlin", Difficulty: domain.DifficultyEasy},
		},
		fillers: []string{"Madrid", "Rome"},
		good:    []string{"Not bad."},
		bad:     []string{"Pathetic."},
	}
}

func scenarioAnswers() map[string]string {
	return map[string]string{"Capital of France?": "Paris", "Capital of Germany?": "Berlin"}
}

func TestRunSessionCorrectThenWrong(t *testing.T) {
	ch := &fakeChannel{answers: scenarioAnswers(), script: []action{answerCorrect, answerWrong}}
	engine := app.NewEngine(scenarioStore(), app.WithSeed(1))

	res, err := engine.RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if res.Phase != domain.PhaseEnded {
		t.Fatalf("expected ended phase, got %q", res.Phase)
	}
	if res.Score != 1 || res.Reason != domain.EndIncorrect {
		t.Fatalf("expected score 1 ending on incorrect, got %+v", res)
	}
	if len(ch.presented) != 2 {
		t.Fatalf("expected 2 questions presented, got %d", len(ch.presented))
	}
	if len(ch.presented[0].options) != 4 {
		t.Fatalf("expected 4 options for first question, got %v", ch.presented[0].options)
	}
	for _, p := range ch.presented {
		assertDistinct(t, p.options)
		if len(p.symbols) != len(p.options) {
			t.Fatalf("expected one symbol per option, got %v for %v", p.symbols, p.options)
		}
	}
	if len(ch.replies) != 2 || ch.replies[0] != app.CorrectMessage("Not bad.") {
		t.Fatalf("unexpected replies %q", ch.replies)
	}
	if len(ch.posts) != 1 || ch.posts[0] != "You scored 1 point!" {
		t.Fatalf("expected single report, got %q", ch.posts)
	}
}

func TestRunSessionTimeoutSendsNoReport(t *testing.T) {
	store := &fakeStore{questions: scenarioStore().questions[:1]}
	ch := &fakeChannel{answers: scenarioAnswers()}
	engine := app.NewEngine(store, app.WithAnswerTimeout(2*time.Second))

	res, err := engine.RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if res.Score != 0 || res.Reason != domain.EndTimeout {
		t.Fatalf("expected timeout with no score, got %+v", res)
	}
	if len(ch.replies) != 1 || ch.replies[0] != app.TimesUpMessage {
		t.Fatalf("expected one time's up message, got %q", ch.replies)
	}
	if len(ch.posts) != 0 {
		t.Fatalf("expected no report, got %q", ch.posts)
	}
	if ch.waits[0] != 2*time.Second {
		t.Fatalf("expected configured timeout, got %v", ch.waits[0])
	}
}

func TestRunSessionWrongFirstAnswer(t *testing.T) {
	ch := &fakeChannel{answers: scenarioAnswers(), script: []action{answerWrong}}
	engine := app.NewEngine(&fakeStore{questions: scenarioStore().questions}, app.WithSeed(7))

	res, err := engine.RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if res.Score != 0 || len(ch.posts) != 0 {
		t.Fatalf("expected zero score and no report, got %+v posts=%q", res, ch.posts)
	}
	correct := -1
	for i, opt := range ch.presented[0].options {
		if opt == "Paris" {
			correct = i
		}
	}
	if want := app.IncorrectMessage("Wrong!", correct); ch.replies[0] != want {
		t.Fatalf("expected %q, got %q", want, ch.replies[0])
	}
}

func TestRunSessionNeverRepeatsQuestions(t *testing.T) {
	store := &fakeStore{
		questions: []domain.Question{
			{Prompt: "q1", CorrectAnswer: "a1"},
			{Prompt: "q2", CorrectAnswer: "a2"},
			{Prompt: "q3", CorrectAnswer: "a3"},
			{Prompt: "q4", CorrectAnswer: "a4"},
		},
		fillers: []string{"x", "y", "z", "w"},
	}
	answers := map[string]string{"q1": "a1", "q2": "a2", "q3": "a3", "q4": "a4"}
	ch := &fakeChannel{answers: answers, script: []action{answerCorrect, answerCorrect, answerCorrect, answerCorrect, answerCorrect}}

	res, err := app.NewEngine(store, app.WithSeed(3)).RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if res.Reason != domain.EndExhausted || res.Score != 4 {
		t.Fatalf("expected exhaustion after 4 correct answers, got %+v", res)
	}
	assertDistinct(t, res.Asked)
	if ch.posts[len(ch.posts)-1] != "You scored 4 points!" {
		t.Fatalf("unexpected report %q", ch.posts)
	}
	if ch.replies[0] != app.CorrectMessage("Correct!") {
		t.Fatalf("expected fallback good flavor, got %q", ch.replies[0])
	}
}

func TestSelectionGivesUpAfterBoundedAttempts(t *testing.T) {
	store := &fakeStore{questions: []domain.Question{{Prompt: "only", CorrectAnswer: "yes"}}}
	ch := &fakeChannel{answers: map[string]string{"only": "yes"}, script: []action{answerCorrect}}

	res, err := app.NewEngine(store, app.WithSelectionAttempts(5)).RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if res.Reason != domain.EndExhausted || res.Score != 1 {
		t.Fatalf("expected exhaustion, got %+v", res)
	}
	if store.draws != 1+5 {
		t.Fatalf("expected 6 draws, got %d", store.draws)
	}
}

func TestEmptyStoreEndsQuietly(t *testing.T) {
	ch := &fakeChannel{}
	res, err := app.NewEngine(&fakeStore{}).RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if res.Reason != domain.EndExhausted || len(ch.presented) != 0 || len(ch.posts) != 0 {
		t.Fatalf("expected silent exhaustion, got %+v posts=%q", res, ch.posts)
	}
}

func TestReplyFailureFallsBackToPost(t *testing.T) {
	store := &fakeStore{questions: scenarioStore().questions[:1]}
	ch := &fakeChannel{answers: scenarioAnswers(), failReply: true}

	if _, err := app.NewEngine(store).RunSession(context.Background(), "u1", ch); err != nil {
		t.Fatalf("run session: %v", err)
	}
	if len(ch.posts) != 1 || ch.posts[0] != app.TimesUpMessage {
		t.Fatalf("expected time's up posted to channel, got %q", ch.posts)
	}
}

func TestFirstQuestionUsesResponder(t *testing.T) {
	ch := &respondingChannel{fakeChannel: &fakeChannel{answers: scenarioAnswers(), script: []action{answerCorrect, answerCorrect}}}

	res, err := app.NewEngine(scenarioStore()).RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if ch.responses != 1 {
		t.Fatalf("expected exactly one responder call, got %d", ch.responses)
	}
	if len(ch.presented) != 2 || res.Score != 2 {
		t.Fatalf("expected both questions answered, got %+v", res)
	}
}

func TestFirstPresentationFailureFallsBack(t *testing.T) {
	ch := &respondingChannel{fakeChannel: &fakeChannel{answers: scenarioAnswers()}, fail: true}

	res, err := app.NewEngine(scenarioStore()).RunSession(context.Background(), "u1", ch)
	if err != nil {
		t.Fatalf("run session: %v", err)
	}
	if res.Reason != domain.EndTimeout || len(ch.waits) != 0 {
		t.Fatalf("expected session to end without waiting, got %+v waits=%d", res, len(ch.waits))
	}
	if len(ch.posts) != 1 || ch.posts[0] != app.TimesUpMessage {
		t.Fatalf("expected time's up fallback, got %q", ch.posts)
	}
}

func TestCancelledWaitAbortsWithoutReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := &fakeChannel{answers: scenarioAnswers(), script: []action{answerCorrect, answerBlock}}
	time.AfterFunc(50*time.Millisecond, cancel)

	res, err := app.NewEngine(scenarioStore()).RunSession(ctx, "u1", ch)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if res.Reason != domain.EndAborted || res.Score != 1 {
		t.Fatalf("expected aborted session with score kept, got %+v", res)
	}
	if res.Phase != domain.PhaseAwaitingAnswer {
		t.Fatalf("expected abort while awaiting an answer, got phase %q", res.Phase)
	}
	if len(ch.posts) != 0 {
		t.Fatalf("expected no report after abort, got %q", ch.posts)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	res, err := app.NewEngine(&fakeStore{err: errStoreDown}).RunSession(context.Background(), "u1", &fakeChannel{})
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if res.Phase != domain.PhaseSelecting {
		t.Fatalf("expected failure while selecting, got phase %q", res.Phase)
	}
}

func assertDistinct(t *testing.T, values []string) {
	t.Helper()
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate %q in %v", v, values)
		}
		seen[v] = struct{}{}
	}
}
