package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
)

func TestLoad_DefaultStoreIsSharedSQLite(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)

	req.Equal(messagestore.DriverSQLite, cfg.Store.Driver)
	req.Equal("chat.db", cfg.Store.Database.FilePath)
	req.True(messagestore.SharedAcrossProcesses(cfg.Store.Driver))
}

func TestLoad_StoreFilePathFromEnv(t *testing.T) {
	req := require.New(t)
	t.Setenv("STORE_FILE_PATH", "/var/lib/villages/chat.db")

	cfg, err := Load()
	req.NoError(err)
	req.Equal("/var/lib/villages/chat.db", cfg.Store.Database.FilePath)
}
