// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sylo-assistant/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
