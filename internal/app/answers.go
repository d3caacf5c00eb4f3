package app

import (
	"math/rand"

	"trivia-service/internal/domain"
)

// maxFillerDraws bounds the rejection sampler per missing distractor so a
// tiny filler pool cannot stall answer-set construction.
const maxFillerDraws = 32

type candidate struct {
	text    string
	correct bool
}

// BuildAnswerSet assembles up to four distinct options for q, padding the
// question's own distractors with random fillers, and shuffles them.
// The correct position is tracked by provenance rather than by text.
func BuildAnswerSet(rnd *rand.Rand, q domain.Question, fillers []string) domain.AnswerSet {
	seen := map[string]struct{}{q.CorrectAnswer: {}}
	candidates := []candidate{{text: q.CorrectAnswer, correct: true}}

	for _, a := range q.IncorrectAnswers {
		if len(candidates) == domain.MaxOptions {
			break
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		candidates = append(candidates, candidate{text: a})
	}

	for len(candidates) < domain.MaxOptions && len(fillers) > 0 {
		picked := false
		for draw := 0; draw < maxFillerDraws; draw++ {
			pick := fillers[rnd.Intn(len(fillers))]
			if _, dup := seen[pick]; dup {
				continue
			}
			seen[pick] = struct{}{}
			candidates = append(candidates, candidate{text: pick})
			picked = true
			break
		}
		if !picked {
			break
		}
	}

	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	set := domain.AnswerSet{Options: make([]string, len(candidates))}
	for i, c := range candidates {
		set.Options[i] = c.text
		if c.correct {
			set.CorrectIndex = i
		}
	}
	return set
}

// scoreSelection maps a channel selection onto a round outcome.
func scoreSelection(sel domain.Selection, set domain.AnswerSet) domain.Outcome {
	switch {
	case sel.TimedOut:
		return domain.OutcomeTimedOut
	case sel.Index == set.CorrectIndex:
		return domain.OutcomeCorrect
	default:
		return domain.OutcomeIncorrect
	}
}
