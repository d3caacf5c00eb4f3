package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trivia-service/internal/domain"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionRegistry marks running sessions in Redis so that several service
// instances sharing a channel still run at most one session in it.
// The TTL bounds how long a crashed instance can keep a channel locked.
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{client: client, ttl: ttl}
}

func (r *SessionRegistry) Acquire(ctx context.Context, channelID string) (func(), error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key(channelID), token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSessionActive
	}
	return func() {
		if err := releaseScript.Run(context.Background(), r.client, []string{r.key(channelID)}, token).Err(); err != nil {
			log.Printf("release session lock for %s: %v", channelID, err)
		}
	}, nil
}

func (r *SessionRegistry) key(channelID string) string {
	return "trivia:session:" + channelID
}
