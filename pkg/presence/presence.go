package presence

import (
	"context"
	"time"
)

// Config holds the Redis presence directory configuration.
type Config struct {
	Enabled           bool          `mapstructure:"enabled"`
	Address           string        `mapstructure:"address"`
	Password          string        `mapstructure:"password"`
	DB                int           `mapstructure:"db"`
	Prefix            string        `mapstructure:"presence_prefix"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
}

// Directory publishes which participants hold a live chat connection so
// other services can ask. Delivery never consults it.
type Directory interface {
	Announce(ctx context.Context, participantID string) error
	Withdraw(ctx context.Context, participantID string) error
	IsOnline(ctx context.Context, participantID string) (bool, error)
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}

// New returns a Redis directory when enabled, a no-op one otherwise.
func New(cfg Config, advertiseAddress string) (Directory, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	dir, err := NewRedisDirectory(cfg, advertiseAddress)
	if err != nil {
		return nil, err
	}
	return dir, nil
}

// Noop is used when presence publishing is disabled.
type Noop struct{}

func (Noop) Announce(context.Context, string) error         { return nil }
func (Noop) Withdraw(context.Context, string) error         { return nil }
func (Noop) IsOnline(context.Context, string) (bool, error) { return false, nil }
func (Noop) StartHeartbeat(context.Context) error           { return nil }
func (Noop) StopHeartbeat()                                 {}
func (Noop) Close() error                                   { return nil }
