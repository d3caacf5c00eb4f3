package bank

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"trivia-service/internal/domain"
)

const (
	defaultVersion = 1
	defaultType    = "bad-boss"

	reactionsDir      = "reactions"
	goodResponsesFile = "good_responses.yml"
	badResponsesFile  = "bad_responses.yml"
	fillerAnswersFile = "possible_answers.yml"
)

// Bank is the full trivia content: questions plus the shared pools.
type Bank struct {
	Questions []domain.Question
	Fillers   []string
	Good      []string
	Bad       []string
}

type questionsDoc struct {
	Questions []rawQuestion `yaml:"questions"`
}

type rawQuestion struct {
	Question         string   `yaml:"question"`
	Difficulty       string   `yaml:"difficulty"`
	CorrectAnswer    string   `yaml:"correct_answer"`
	IncorrectAnswers []string `yaml:"incorrect_answers"`
	Version          int      `yaml:"version"`
	Type             string   `yaml:"type"`
}

// LoadDir reads every *.yml/*.yaml questions file in dir and the pools under dir/reactions.
// Missing pool files yield empty pools.
func LoadDir(dir string) (Bank, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Bank{}, fmt.Errorf("read bank dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	var b Bank
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return Bank{}, fmt.Errorf("read %s: %w", name, err)
		}
		questions, err := ParseQuestions(data)
		if err != nil {
			return Bank{}, fmt.Errorf("parse %s: %w", name, err)
		}
		b.Questions = append(b.Questions, questions...)
	}

	pools := []struct {
		file string
		key  string
		dst  *[]string
	}{
		{goodResponsesFile, "responses", &b.Good},
		{badResponsesFile, "responses", &b.Bad},
		{fillerAnswersFile, "answers", &b.Fillers},
	}
	for _, p := range pools {
		list, err := LoadList(filepath.Join(dir, reactionsDir, p.file), p.key)
		if err != nil {
			return Bank{}, err
		}
		*p.dst = list
	}
	return b, nil
}

// ParseQuestions decodes a questions document. Entries that fail validation
// are skipped and logged rather than failing the whole document.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var doc questionsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(doc.Questions))
	for i, raw := range doc.Questions {
		q, err := raw.validate()
		if err != nil {
			log.Printf("skipping question %d: %v", i, err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r rawQuestion) validate() (domain.Question, error) {
	if strings.TrimSpace(r.Question) == "" {
		return domain.Question{}, fmt.Errorf("%w: empty prompt", domain.ErrInvalidQuestion)
	}
	if strings.TrimSpace(r.CorrectAnswer) == "" {
		return domain.Question{}, fmt.Errorf("%w: %q has no correct answer", domain.ErrInvalidQuestion, r.Question)
	}
	difficulty, ok := domain.ParseDifficulty(r.Difficulty)
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: %q has difficulty %q", domain.ErrInvalidQuestion, r.Question, r.Difficulty)
	}
	q := domain.Question{
		Prompt:           r.Question,
		Difficulty:       difficulty,
		CorrectAnswer:    r.CorrectAnswer,
		IncorrectAnswers: r.IncorrectAnswers,
		Version:          r.Version,
		Type:             r.Type,
	}
	if q.IncorrectAnswers == nil {
		q.IncorrectAnswers = []string{}
	}
	if q.Version == 0 {
		q.Version = defaultVersion
	}
	if q.Type == "" {
		q.Type = defaultType
	}
	return q, nil
}

// LoadList reads the string list stored under key in a YAML file.
// A missing file is not an error.
func LoadList(path, key string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	node, ok := doc[key]
	if !ok {
		return nil, nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return nil, fmt.Errorf("parse %s: %s: %w", path, key, err)
	}
	return list, nil
}

// DirLoader loads a bank from a directory on every call.
type DirLoader struct {
	Dir string
}

func (l DirLoader) LoadBank(_ context.Context) (Bank, error) {
	return LoadDir(l.Dir)
}

// StaticLoader serves a bank held in memory (useful for tests/demos).
type StaticLoader struct {
	Bank Bank
}

func (l StaticLoader) LoadBank(_ context.Context) (Bank, error) {
	return l.Bank, nil
}
