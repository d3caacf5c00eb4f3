package app

import (
	"fmt"
	"math/rand"
	"strings"

	"trivia-service/internal/domain"
)

const (
	speaker = ":man_office_worker:"

	// TimesUpMessage is sent when the player lets the answer window lapse.
	TimesUpMessage = speaker + " Typical. Can't even answer a simple question. Time's up!"

	fallbackGood = "Correct!"
	fallbackBad  = "Wrong!"
)

// QuestionMessage renders a prompt and its lettered options.
func QuestionMessage(prompt string, options []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s **Bad Boss says:**\n> %s\n", speaker, prompt)
	for i, opt := range options {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "**%s.** %s", domain.OptionLetter(i), opt)
	}
	b.WriteString("\n\n*Click the correct reaction below!*")
	return b.String()
}

// CorrectMessage renders the reply to a correct answer.
func CorrectMessage(flavor string) string {
	return speaker + " " + flavor
}

// IncorrectMessage renders the reply to a wrong answer, disclosing the right option.
func IncorrectMessage(flavor string, correctIndex int) string {
	return fmt.Sprintf("%s %s The correct answer was **%s**.", speaker, flavor, domain.OptionSymbols[correctIndex])
}

// ReportMessage renders the final score line.
func ReportMessage(score int) string {
	unit := "points"
	if score == 1 {
		unit = "point"
	}
	return fmt.Sprintf("You scored %d %s!", score, unit)
}

func pickFlavor(rnd *rand.Rand, pool []string, fallback string) string {
	if len(pool) == 0 {
		return fallback
	}
	return pool[rnd.Intn(len(pool))]
}
