package security

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript bumps the key, starts its window on the first hit and
// returns the count with the remaining window in milliseconds.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisCounter is a Counter shared by every instance using the same Redis.
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisCounter{client: client, prefix: prefix, now: time.Now}
}

func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (Hit, error) {
	res, err := incrementScript.Run(ctx, c.client, []string{c.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Hit{}, fmt.Errorf("redis increment: %w", err)
	}
	if len(res) != 2 {
		return Hit{}, fmt.Errorf("redis increment: unexpected reply length %d", len(res))
	}

	return Hit{
		Count:   int(res[0]),
		ResetAt: c.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis reset: %w", err)
	}
	return nil
}

// ConnectRedis parses raw as a redis:// URL, or a bare host:port, and pings
// the server.
func ConnectRedis(ctx context.Context, raw string) (*redis.Client, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("redis url is empty")
	}

	var opts *redis.Options
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "redis" || u.Scheme == "rediss") {
		opts, err = redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: raw}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
