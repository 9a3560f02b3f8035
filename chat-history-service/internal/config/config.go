package config

import (
	"time"

	pkgconfig "github.com/zainabubaker/Villages-Management-System/pkg/config"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
	"github.com/zainabubaker/Villages-Management-System/pkg/presence"
)

type Config struct {
	Server ServerConfig        `mapstructure:"server"`
	Store  messagestore.Config `mapstructure:"store"`
	Redis  presence.Config     `mapstructure:"redis"`
	Cache  CacheConfig         `mapstructure:"cache"`
	Auth   AuthConfig          `mapstructure:"auth"`
	Log    log.Config          `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type CacheConfig struct {
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessDuration time.Duration `mapstructure:"access_duration"`
}

func Load(configPath string) (*Config, error) {
	v, err := pkgconfig.Load(configPath, "config")
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8091)
	v.SetDefault("store.driver", messagestore.DriverSQLite)
	v.SetDefault("store.database.file_path", "chat.db")
	v.SetDefault("store.database.sslmode", "disable")
	v.SetDefault("store.cassandra.hosts", "localhost:9042")
	v.SetDefault("store.cassandra.keyspace", "chat")
	v.SetDefault("store.cassandra.consistency", "LOCAL_ONE")
	v.SetDefault("store.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongodb.database", "villages")
	v.SetDefault("store.mongodb.collection", "messages")
	v.SetDefault("store.badger.path", "./data/messages")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.presence_prefix", "chat:presence")
	v.SetDefault("cache.prefix", "chat:history")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("auth.issuer", "villages-management")
	v.SetDefault("auth.access_duration", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "chat-history-service")

	// Env overrides (for Docker)
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.database.file_path", "STORE_FILE_PATH")
	_ = v.BindEnv("store.mongodb.uri", "MONGO_URI")
	_ = v.BindEnv("store.cassandra.hosts", "CASSANDRA_HOSTS")
	_ = v.BindEnv("store.cassandra.keyspace", "CASSANDRA_KEYSPACE")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("auth.secret", "JWT_SECRET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// CASSANDRA_HOSTS: comma-separated, e.g. "cassandra:9042" or "host1:9042,host2:9042"
	cfg.Store.Cassandra.Hosts = pkgconfig.StringSlice(v, "store.cassandra.hosts")
	cfg.Store.Cassandra.ConnectTimeout = pkgconfig.Duration(v, "store.cassandra.connect_timeout", 10*time.Second)
	cfg.Store.Cassandra.Timeout = pkgconfig.Duration(v, "store.cassandra.timeout", 5*time.Second)
	cfg.Store.Mongo.ConnectTimeout = pkgconfig.Duration(v, "store.mongodb.connect_timeout", 10*time.Second)
	cfg.Cache.TTL = pkgconfig.Duration(v, "cache.ttl", 30*time.Second)
	cfg.Auth.AccessDuration = pkgconfig.Duration(v, "auth.access_duration", time.Hour)

	return &cfg, nil
}
