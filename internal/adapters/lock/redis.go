package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "transfer-tracking:records:write-lock"

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Extends the expiry only while the key still holds our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis serializes writers across processes sharing one Redis.
//
// The lock is a key set with NX and an expiry. The holder refreshes the
// expiry every third of the TTL until release, so the expiry only bounds how
// long a crashed holder can block others.
type Redis struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	timeout time.Duration
	poll    time.Duration
}

type RedisConfig struct {
	URL     string
	Key     string
	TTL     time.Duration
	Timeout time.Duration
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis lock: parse url: %w", err)
	}
	return NewRedisWithClient(redis.NewClient(opts), cfg), nil
}

func NewRedisWithClient(client *redis.Client, cfg RedisConfig) *Redis {
	if cfg.Key == "" {
		cfg.Key = DefaultRedisKey
	}
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Redis{
		client:  client,
		key:     cfg.Key,
		ttl:     cfg.TTL,
		timeout: cfg.Timeout,
		poll:    25 * time.Millisecond,
	}
}

// Ping verifies the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis lock: ping: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	token := uuid.NewString()
	backoff := r.poll

	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("redis lock: set %q: %w", r.key, err)
		}
		if ok {
			return r.releaser(token), nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-timer.C:
		}

		if backoff < 400*time.Millisecond {
			backoff *= 2
		}
	}
}

func (r *Redis) releaser(token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go r.refresh(token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
				log.Printf("redis lock release failed: key=%s err=%v", r.key, err)
			}
		})
	}
}

// refresh keeps the key alive while the holder works.
func (r *Redis) refresh(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
			n, err := refreshScript.Run(ctx, r.client, []string{r.key}, token, r.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				log.Printf("redis lock refresh failed: key=%s err=%v", r.key, err)
				continue
			}
			if n == 0 {
				log.Printf("redis lock lost before release: key=%s", r.key)
				return
			}
		}
	}
}
