package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-service/internal/app"
)

type pool string

const (
	poolFiller pool = "filler"
	poolGood   pool = "good"
	poolBad    pool = "bad"
)

// CachedStore wraps a QuestionStore and caches the answer and flavor pools
// with a TTL, so a session does not hit the backing store for them every round.
// Question draws always go to the backing store.
type CachedStore struct {
	app.QuestionStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[pool]cachedPool
}

type cachedPool struct {
	items     []string
	expiresAt time.Time
}

func NewCachedStore(store app.QuestionStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		QuestionStore: store,
		ttl:           ttl,
		clock:         time.Now,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:         make(map[pool]cachedPool),
	}
}

func (c *CachedStore) FillerAnswers(ctx context.Context) ([]string, error) {
	return c.get(ctx, poolFiller, c.QuestionStore.FillerAnswers)
}

func (c *CachedStore) GoodFlavor(ctx context.Context) ([]string, error) {
	return c.get(ctx, poolGood, c.QuestionStore.GoodFlavor)
}

func (c *CachedStore) BadFlavor(ctx context.Context) ([]string, error) {
	return c.get(ctx, poolBad, c.QuestionStore.BadFlavor)
}

func (c *CachedStore) get(ctx context.Context, name pool, load func(context.Context) ([]string, error)) ([]string, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[name]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.items, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(string(name), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[name]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.items, nil
		}
		c.mu.RUnlock()

		items, err := load(ctx)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[name] = cachedPool{items: items, expiresAt: expiresAt}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *CachedStore) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
