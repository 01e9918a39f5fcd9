package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"
)

var (
	db   *sql.DB
	once sync.Once
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (cfg *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.SSLMode,
	)

	if cfg.Password != "" {
		connStr += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return connStr
}

func Initialize(cfg *Config) error {
	var initErr error

	once.Do(func() {
		var err error
		db, err = sql.Open("postgres", cfg.ConnectionString())
		if err != nil {
			initErr = errors.Wrap(err, "failed to open database")
			return
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			initErr = errors.Wrap(err, "failed to ping database")
			return
		}

		if err := runMigrations(ctx); err != nil {
			initErr = errors.Wrap(err, "failed to run migrations")
			return
		}

		zlog.Info().Str("host", cfg.Host).Str("database", cfg.DBName).Msg("database connection established")
	})

	return initErr
}

var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS status_messages (
		guild_id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`,
}

func runMigrations(ctx context.Context) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return errors.Wrapf(err, "migration %d", i+1)
		}
	}
	zlog.Debug().Int("count", len(migrations)).Msg("database migrations applied")
	return nil
}

func GetDB() *sql.DB {
	return db
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
