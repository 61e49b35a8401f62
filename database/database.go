package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inference-gateway/config"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
)

// Database stores run history.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the MySQL connection and waits for it to answer,
// giving up when ctx is done.
func NewDatabase(ctx context.Context, cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxElapsedTime = 0
	err = backoff.RetryNotify(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		log.Warnf("Database connection failed, retrying in %v: %v", wait, err)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Infof("Connected to database %s on %s:%s", cfg.DBName, cfg.DBHost, cfg.DBPort)
	return &Database{db: db}, nil
}

// New wraps an open connection.
func New(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}
