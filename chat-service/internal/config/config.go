package config

import (
	"time"

	pkgconfig "github.com/zainabubaker/Villages-Management-System/pkg/config"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
	"github.com/zainabubaker/Villages-Management-System/pkg/presence"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Store     messagestore.Config
	Redis     presence.Config
	Kafka     KafkaConfig
	Auth      AuthConfig
	Log       log.Config
}

type ServerConfig struct {
	Host             string
	Port             int
	AdvertiseAddress string `mapstructure:"advertise_address"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	HandleTimeout  time.Duration `mapstructure:"handle_timeout"`
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    string
	Topic      string
	Partitions int
}

type AuthConfig struct {
	Secret            string
	Issuer            string
	AccessDuration    time.Duration `mapstructure:"access_duration"`
	RequireLoginToken bool          `mapstructure:"require_login_token"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.advertise_address", "localhost:4000")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.handle_timeout", "5s")
	v.SetDefault("store.driver", messagestore.DriverSQLite)
	v.SetDefault("store.database.file_path", "chat.db")
	v.SetDefault("store.database.sslmode", "disable")
	v.SetDefault("store.cassandra.hosts", "localhost:9042")
	v.SetDefault("store.cassandra.keyspace", "chat")
	v.SetDefault("store.cassandra.consistency", "LOCAL_QUORUM")
	v.SetDefault("store.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongodb.database", "villages")
	v.SetDefault("store.mongodb.collection", "messages")
	v.SetDefault("store.badger.path", "./data/messages")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.presence_prefix", "chat:presence")
	v.SetDefault("redis.heartbeat_interval", "10s")
	v.SetDefault("redis.key_ttl", "30s")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "chat-messages")
	v.SetDefault("kafka.partitions", 8)
	v.SetDefault("auth.issuer", "villages-management")
	v.SetDefault("auth.access_duration", "1h")
	v.SetDefault("auth.require_login_token", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "chat-service")

	// Override from environment
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.advertise_address", "ADVERTISE_ADDRESS")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.database.file_path", "STORE_FILE_PATH")
	_ = v.BindEnv("store.mongodb.uri", "MONGO_URI")
	_ = v.BindEnv("store.cassandra.hosts", "CASSANDRA_HOSTS")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("auth.secret", "JWT_SECRET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations and lists
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.WebSocket.HandleTimeout = pkgconfig.Duration(v, "websocket.handle_timeout", 5*time.Second)
	cfg.Redis.HeartbeatInterval = pkgconfig.Duration(v, "redis.heartbeat_interval", 10*time.Second)
	cfg.Redis.KeyTTL = pkgconfig.Duration(v, "redis.key_ttl", 30*time.Second)
	cfg.Auth.AccessDuration = pkgconfig.Duration(v, "auth.access_duration", time.Hour)
	cfg.Store.Cassandra.Hosts = pkgconfig.StringSlice(v, "store.cassandra.hosts")
	cfg.Store.Cassandra.ConnectTimeout = pkgconfig.Duration(v, "store.cassandra.connect_timeout", 10*time.Second)
	cfg.Store.Cassandra.Timeout = pkgconfig.Duration(v, "store.cassandra.timeout", 5*time.Second)
	cfg.Store.Mongo.ConnectTimeout = pkgconfig.Duration(v, "store.mongodb.connect_timeout", 10*time.Second)
	cfg.Store.Database.SlowThreshold = pkgconfig.Duration(v, "store.database.slow_threshold", 200*time.Millisecond)

	if cfg.WebSocket.SendBuffer <= 0 {
		cfg.WebSocket.SendBuffer = 256
	}

	return &cfg, nil
}
