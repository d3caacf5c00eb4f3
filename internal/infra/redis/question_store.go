package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-service/internal/bank"
	"trivia-service/internal/domain"
)

const (
	loadedKey    = "trivia:bank:loaded"
	promptsKey   = "trivia:questions:prompts"
	questionsKey = "trivia:questions"
	fillerKey    = "trivia:pool:filler"
	goodKey      = "trivia:pool:good"
	badKey       = "trivia:pool:bad"

	// data keys outlive the loaded marker so a reader that saw the marker never finds them gone
	dataGrace = time.Minute
)

// BankLoader fetches trivia content from a backing store (e.g., Postgres or YAML files).
type BankLoader interface {
	LoadBank(ctx context.Context) (bank.Bank, error)
}

// QuestionStore serves trivia content cached in Redis and refills it from a loader on miss.
// Layout:
//
//	SET  trivia:questions:prompts {prompt...}   draw source for SRANDMEMBER
//	HSET trivia:questions {prompt} {question JSON}
//	LIST trivia:pool:{filler,good,bad}
type QuestionStore struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionStore(client *redis.Client, loader BankLoader, ttl time.Duration) *QuestionStore {
	return &QuestionStore{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *QuestionStore) RandomQuestion(ctx context.Context) (domain.Question, bool, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Question{}, false, err
	}
	prompt, err := s.client.SRandMember(ctx, promptsKey).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("draw question: %w", err)
	}
	raw, err := s.client.HGet(ctx, questionsKey, prompt).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("get question: %w", err)
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, false, fmt.Errorf("unmarshal question: %w", err)
	}
	return q, true, nil
}

func (s *QuestionStore) FillerAnswers(ctx context.Context) ([]string, error) {
	return s.list(ctx, fillerKey)
}

func (s *QuestionStore) GoodFlavor(ctx context.Context) ([]string, error) {
	return s.list(ctx, goodKey)
}

func (s *QuestionStore) BadFlavor(ctx context.Context) ([]string, error) {
	return s.list(ctx, badKey)
}

// Invalidate drops the cached bank so the next read reloads it.
func (s *QuestionStore) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, loadedKey).Err()
}

func (s *QuestionStore) list(ctx context.Context, key string) ([]string, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return items, nil
}

func (s *QuestionStore) ensureLoaded(ctx context.Context) error {
	n, err := s.client.Exists(ctx, loadedKey).Result()
	if err != nil {
		log.Printf("redis question cache: check %s: %v; reloading", loadedKey, err)
	} else if n > 0 {
		return nil
	}

	// Shared by every waiting caller; a caller leaving early does not cancel it.
	loadCtx := context.WithoutCancel(ctx)
	res := s.sf.DoChan(loadedKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if n, err := s.client.Exists(loadCtx, loadedKey).Result(); err == nil && n > 0 {
			return nil, nil
		}

		b, err := s.loader.LoadBank(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("load bank: %w", err)
		}
		return nil, s.store(loadCtx, b)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-res:
		return r.Err
	}
}

func (s *QuestionStore) store(ctx context.Context, b bank.Bank) error {
	ttl := s.ttlWithJitter()
	dataKeys := []string{promptsKey, questionsKey, fillerKey, goodKey, badKey}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, dataKeys...)
	for _, q := range b.Questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		pipe.SAdd(ctx, promptsKey, q.Key())
		pipe.HSet(ctx, questionsKey, q.Key(), data)
	}
	pushAll(ctx, pipe, fillerKey, b.Fillers)
	pushAll(ctx, pipe, goodKey, b.Good)
	pushAll(ctx, pipe, badKey, b.Bad)
	if ttl > 0 {
		for _, key := range dataKeys {
			pipe.Expire(ctx, key, ttl+dataGrace)
		}
	}
	pipe.Set(ctx, loadedKey, "1", ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache bank: %w", err)
	}
	return nil
}

func pushAll(ctx context.Context, pipe redis.Pipeliner, key string, items []string) {
	if len(items) == 0 {
		return
	}
	values := make([]interface{}, len(items))
	for i, item := range items {
		values[i] = item
	}
	pipe.RPush(ctx, key, values...)
}

func (s *QuestionStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
