package storage

import (
	"github.com/momentum-xyz/mapconfig/internal/config"
	"github.com/momentum-xyz/mapconfig/internal/logger"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	maxOpenConnections = 100
)

var log = logger.L()

type Database struct {
	*sqlx.DB
}

func OpenDB(cfg *config.Storage) (*Database, error) {
	switch cfg.Driver {
	case config.DriverMySQL, config.DriverSQLite:
	default:
		return nil, errors.Errorf("unsupported storage driver: %q", cfg.Driver)
	}

	DB, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, errors.WithMessage(err, "failed to open db")
	}
	if cfg.Driver == config.DriverSQLite {
		// sqlite allows a single writer
		DB.SetMaxOpenConns(1)
	} else {
		DB.SetMaxOpenConns(maxOpenConnections)
	}
	if err := DB.Ping(); err != nil {
		DB.Close()
		return nil, errors.WithMessage(err, "failed to ping db")
	}

	log.Infof("Storage: connected to %s", cfg.Driver)
	return &Database{DB: DB}, nil
}
