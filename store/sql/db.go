package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// DBConfig describes a connection for hosts that let this module open the
// database itself instead of handing over a persistence client.
type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// OpenDB opens a bun handle for the postgres or sqlite driver. SQLite
// connections are pinned to a single conn because the shared-cache memory
// DSNs used in tests lose their schema otherwise.
func OpenDB(cfg DBConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	var driverName string
	switch driver {
	case "postgres", "postgresql", "pg":
		driverName = "postgres"
	case "sqlite", "sqlite3":
		driverName = "sqlite3"
	case "":
		return nil, fmt.Errorf("sqlstore: driver is required")
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s database: %w", driverName, err)
	}

	if driverName == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
		if cfg.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
		}
	}

	if driverName == "postgres" {
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	}
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}
