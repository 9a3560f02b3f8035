package messagestore

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zainabubaker/Villages-Management-System/pkg/database"
)

const (
	DriverMemory    = "memory"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverCassandra = "cassandra"
	DriverMongo     = "mongodb"
	DriverBadger    = "badger"
)

// Config selects and configures a backend.
type Config struct {
	Driver    string          `mapstructure:"driver"`
	Database  database.Config `mapstructure:"database"`
	Cassandra CassandraConfig `mapstructure:"cassandra"`
	Mongo     MongoConfig     `mapstructure:"mongodb"`
	Badger    BadgerConfig    `mapstructure:"badger"`
}

// SharedAcrossProcesses reports whether separate processes can open the
// backend at the same time. The memory store lives inside one process and
// badger holds an exclusive lock on its directory.
func SharedAcrossProcesses(driver string) bool {
	switch driver {
	case "", DriverMemory, DriverBadger:
		return false
	default:
		return true
	}
}

// New opens the backend named by cfg.Driver.
func New(cfg Config, log zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		log.Warn().Msg("using in-memory message store, history is lost on restart")
		return NewMemoryStore(), nil

	case DriverSQLite, DriverPostgres, DriverMySQL:
		dbCfg := cfg.Database
		dbCfg.Driver = cfg.Driver
		db, err := database.New(&dbCfg, log)
		if err != nil {
			return nil, err
		}
		store, err := NewGormStore(db)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		return store, nil

	case DriverCassandra:
		store, err := NewCassandraStore(cfg.Cassandra)
		if err != nil {
			return nil, err
		}
		return store, nil

	case DriverMongo:
		store, err := NewMongoStore(cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return store, nil

	case DriverBadger:
		store, err := NewBadgerStore(cfg.Badger)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported message store driver: %s", cfg.Driver)
	}
}
