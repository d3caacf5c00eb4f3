package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-service/internal/bank"
	"trivia-service/internal/domain"
)

const (
	fillerTable = "filler_answers"
	goodTable   = "good_responses"
	badTable    = "bad_responses"
)

// QuestionStore reads trivia content stored as JSONB rows in Postgres.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) RandomQuestion(ctx context.Context) (domain.Question, bool, error) {
	var id int64
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT id, data FROM questions ORDER BY random() LIMIT 1`).Scan(&id, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("load question: %w", err)
	}
	q, err := decodeQuestion(id, raw)
	if err != nil {
		return domain.Question{}, false, err
	}
	return q, true, nil
}

func (s *QuestionStore) FillerAnswers(ctx context.Context) ([]string, error) {
	return s.texts(ctx, fillerTable)
}

func (s *QuestionStore) GoodFlavor(ctx context.Context) ([]string, error) {
	return s.texts(ctx, goodTable)
}

func (s *QuestionStore) BadFlavor(ctx context.Context) ([]string, error) {
	return s.texts(ctx, badTable)
}

// LoadBank reads every question and pool, for warming caches.
func (s *QuestionStore) LoadBank(ctx context.Context) (bank.Bank, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM questions ORDER BY id`)
	if err != nil {
		return bank.Bank{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var b bank.Bank
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return bank.Bank{}, fmt.Errorf("scan question: %w", err)
		}
		q, err := decodeQuestion(id, raw)
		if err != nil {
			return bank.Bank{}, err
		}
		b.Questions = append(b.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return bank.Bank{}, fmt.Errorf("load questions: %w", err)
	}

	if b.Fillers, err = s.texts(ctx, fillerTable); err != nil {
		return bank.Bank{}, err
	}
	if b.Good, err = s.texts(ctx, goodTable); err != nil {
		return bank.Bank{}, err
	}
	if b.Bad, err = s.texts(ctx, badTable); err != nil {
		return bank.Bank{}, err
	}
	return b, nil
}

// texts reads a pool table; table is always one of the package constants.
func (s *QuestionStore) texts(ctx context.Context, table string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT text FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

func decodeQuestion(id int64, raw []byte) (domain.Question, error) {
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal question %d: %w", id, err)
	}
	q.ID = fmt.Sprint(id)
	return q, nil
}
