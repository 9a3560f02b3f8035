package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
)

// withdrawScript deletes KEYS[1] only while it still holds ARGV[1].
var withdrawScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisDirectory struct {
	client            redis.UniversalClient
	advertiseAddress  string
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration
	managedKeys       map[string]struct{} // participants announced by this instance
	mu                sync.RWMutex
	cancel            context.CancelFunc
}

func NewRedisDirectory(cfg Config, advertiseAddress string) (*RedisDirectory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisDirectory(client, cfg, advertiseAddress), nil
}

func newRedisDirectory(client redis.UniversalClient, cfg Config, advertiseAddress string) *RedisDirectory {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "chat:presence"
	}
	ttl := cfg.KeyTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	interval := cfg.HeartbeatInterval
	if interval <= 0 || interval >= ttl {
		interval = ttl / 3
	}

	return &RedisDirectory{
		client:            client,
		advertiseAddress:  advertiseAddress,
		prefix:            prefix,
		keyTTL:            ttl,
		heartbeatInterval: interval,
		managedKeys:       make(map[string]struct{}),
	}
}

func (r *RedisDirectory) keyFor(participantID string) string {
	return fmt.Sprintf("%s:participant:%s", r.prefix, participantID)
}

func (r *RedisDirectory) Announce(ctx context.Context, participantID string) error {
	key := r.keyFor(participantID)

	if err := r.client.Set(ctx, key, r.advertiseAddress, r.keyTTL).Err(); err != nil {
		return fmt.Errorf("failed to announce participant: %w", err)
	}

	r.mu.Lock()
	r.managedKeys[key] = struct{}{}
	r.mu.Unlock()

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldParticipantID, participantID).Str("address", r.advertiseAddress).Msg("announced participant")
	return nil
}

// Withdraw removes the key only while it still points at this instance, so a
// participant that re-logged elsewhere is not marked offline.
func (r *RedisDirectory) Withdraw(ctx context.Context, participantID string) error {
	key := r.keyFor(participantID)

	r.mu.Lock()
	delete(r.managedKeys, key)
	r.mu.Unlock()

	deleted, err := withdrawScript.Run(ctx, r.client, []string{key}, r.advertiseAddress).Int()
	if err != nil {
		return fmt.Errorf("failed to withdraw participant: %w", err)
	}
	if deleted == 0 {
		return nil
	}

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldParticipantID, participantID).Msg("withdrew participant")
	return nil
}

func (r *RedisDirectory) IsOnline(ctx context.Context, participantID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.keyFor(participantID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to lookup participant: %w", err)
	}
	return n > 0, nil
}

func (r *RedisDirectory) StartHeartbeat(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go r.heartbeatLoop(ctx)
	l := log.L()
	l.Info().Dur("interval", r.heartbeatInterval).Dur("ttl", r.keyTTL).Msg("presence heartbeat started")
	return nil
}

func (r *RedisDirectory) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshKeys(ctx)
		}
	}
}

func (r *RedisDirectory) refreshKeys(ctx context.Context) {
	r.mu.RLock()
	keys := make([]string, 0, len(r.managedKeys))
	for k := range r.managedKeys {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	if len(keys) == 0 {
		return
	}

	pipe := r.client.Pipeline()
	for _, key := range keys {
		pipe.Expire(ctx, key, r.keyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		l := log.L()
		l.Error().Int("keys", len(keys)).Err(err).Msg("failed to refresh presence keys")
	}
}

func (r *RedisDirectory) StopHeartbeat() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *RedisDirectory) Close() error {
	r.StopHeartbeat()
	return r.client.Close()
}
