package domain

import "strings"

// Difficulty is display-only metadata attached to a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes raw input into a known difficulty.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	}
	return "", false
}

// Question models a multiple-choice trivia question with one correct answer.
type Question struct {
	ID               string     `json:"id,omitempty" yaml:"id,omitempty"`
	Prompt           string     `json:"question" yaml:"question"`
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	CorrectAnswer    string     `json:"correct_answer" yaml:"correct_answer"`
	IncorrectAnswers []string   `json:"incorrect_answers" yaml:"incorrect_answers"`
	Version          int        `json:"version" yaml:"version"`
	Type             string     `json:"type" yaml:"type"`
}

// Key identifies a question for repeat tracking within a session.
// The prompt is used so that the same question stored under different
// row IDs is still treated as one.
func (q Question) Key() string {
	return q.Prompt
}

// AnswerSet is the shuffled list of options offered for one question.
type AnswerSet struct {
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Correct returns the text of the correct option.
func (a AnswerSet) Correct() string {
	return a.Options[a.CorrectIndex]
}

// OptionSymbols are the selectable reactions offered with a question, one per option slot.
var OptionSymbols = []string{"🇦", "🇧", "🇨", "🇩"}

// MaxOptions is the number of options presented for a question.
const MaxOptions = 4

// OptionLetter returns the display label (A-D) for an option position.
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// MessageHandle references a message published on a channel.
type MessageHandle struct {
	ID string `json:"id"`
}

// Selection is the result of waiting for a player's reaction.
type Selection struct {
	Index    int
	TimedOut bool
}

// Outcome classifies a single round.
type Outcome int

const (
	OutcomeCorrect Outcome = iota
	OutcomeIncorrect
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Phase tracks where a session is in its lifecycle. A session that stops
// on an error keeps the phase it failed in.
type Phase string

const (
	PhaseSelecting      Phase = "selecting"
	PhasePresenting     Phase = "presenting"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseScored         Phase = "scored"
	PhaseEnded          Phase = "ended"
)

// EndReason records why a session stopped.
type EndReason string

const (
	EndExhausted EndReason = "exhausted"
	EndTimeout   EndReason = "timeout"
	EndIncorrect EndReason = "incorrect"
	EndAborted   EndReason = "aborted"
)

// Result summarizes a finished session.
type Result struct {
	SessionID string    `json:"sessionId"`
	PlayerID  string    `json:"playerId"`
	Score     int       `json:"score"`
	Asked     []string  `json:"asked"`
	Reason    EndReason `json:"reason"`
	Phase     Phase     `json:"phase"`
}
