package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildKey(t *testing.T) {
	c := &RedisMessageCache{prefix: "chat:history"}
	require.Equal(t, "chat:history:1_2:start:50", c.BuildKey("1_2", "", 50))
	require.Equal(t, "chat:history:1_2:01HQ:10", c.BuildKey("1_2", "01HQ", 10))
}

func TestNoopCache(t *testing.T) {
	req := require.New(t)
	var c MessageCache = NoopCache{}

	req.NoError(c.Set(context.Background(), "k", nil, 0))
	_, err := c.Get(context.Background(), "k")
	req.ErrorIs(err, ErrCacheMiss)
	req.NoError(c.Close())
}
