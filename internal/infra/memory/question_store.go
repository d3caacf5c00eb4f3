package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-service/internal/bank"
	"trivia-service/internal/domain"
)

// QuestionStore serves questions and pools from a bank held in memory.
type QuestionStore struct {
	bank bank.Bank

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionStore(b bank.Bank) *QuestionStore {
	return &QuestionStore{
		bank: b,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *QuestionStore) RandomQuestion(_ context.Context) (domain.Question, bool, error) {
	if len(s.bank.Questions) == 0 {
		return domain.Question{}, false, nil
	}
	s.mu.Lock()
	i := s.rnd.Intn(len(s.bank.Questions))
	s.mu.Unlock()
	return s.bank.Questions[i], true, nil
}

func (s *QuestionStore) FillerAnswers(_ context.Context) ([]string, error) {
	return s.bank.Fillers, nil
}

func (s *QuestionStore) GoodFlavor(_ context.Context) ([]string, error) {
	return s.bank.Good, nil
}

func (s *QuestionStore) BadFlavor(_ context.Context) ([]string, error) {
	return s.bank.Bad, nil
}

// LoadBank exposes the held bank so it can seed other stores.
func (s *QuestionStore) LoadBank(_ context.Context) (bank.Bank, error) {
	return s.bank, nil
}
