package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/baechuer/chatcpe-service/internal/logger"
)

const dbPingTimeout = 3 * time.Second

// NewDB opens a database/sql pool over pgx and pings it once, so a bad DSN
// fails at startup rather than on the first request.
func NewDB(dsn string, debug bool) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DB DSN")
	}

	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DB DSN: %w", err)
	}
	if cc.RuntimeParams["application_name"] == "" {
		cc.RuntimeParams["application_name"] = "chatcpe"
	}

	db := stdlib.OpenDB(*cc)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s:%d/%s: %w", cc.Host, cc.Port, cc.Database, err)
	}

	if debug {
		var version string
		_ = db.QueryRowContext(ctx, "SHOW server_version").Scan(&version)
		logger.Logger.Debug().
			Str("host", cc.Host).
			Str("db", cc.Database).
			Str("user", cc.User).
			Str("version", version).
			Msg("db connected")
	}

	return db, nil
}
