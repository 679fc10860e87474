// Package postgres implements the repositories on PostgreSQL behind a
// primary/replica resolver. Schema migrations run automatically on connect.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration source
	_ "github.com/jackc/pgx/v5/stdlib"                   // pgx database/sql driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

var credentialsPattern = regexp.MustCompile(`://[^@\s]+@`)

// Connection manages the primary/replica database pair. The zero value plus
// connection strings is usable; Connect fills in pool defaults and runs
// pending migrations against the primary.
type Connection struct {
	ConnectionStringPrimary string
	ConnectionStringReplica string
	DatabaseName            string
	MigrationsPath          string
	MaxOpenConnections      int
	MaxIdleConnections      int
	Logger                  log.Logger

	mu sync.RWMutex
	db dbresolver.DB
}

func (c *Connection) initDefaults() {
	if c.Logger == nil {
		c.Logger = log.NewNop()
	}

	if c.MaxOpenConnections <= 0 {
		c.MaxOpenConnections = defaultMaxOpenConns
	}

	if c.MaxIdleConnections <= 0 {
		c.MaxIdleConnections = defaultMaxIdleConns
	}
}

// Connect opens the primary and replica pools, runs migrations, and pings.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initDefaults()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled before database connection: %w", err)
	}

	c.Logger.Log(ctx, log.LevelInfo, "connecting to primary and replica databases")

	primary, err := sql.Open("pgx", c.ConnectionStringPrimary)
	if err != nil {
		return fmt.Errorf("open primary database: %s", sanitizeError(err))
	}

	var success bool

	defer func() {
		if !success {
			primary.Close()
		}
	}()

	tunePool(primary, c.MaxOpenConnections, c.MaxIdleConnections)

	replicaDSN := c.ConnectionStringReplica
	if replicaDSN == "" {
		replicaDSN = c.ConnectionStringPrimary
	}

	replica, err := sql.Open("pgx", replicaDSN)
	if err != nil {
		return fmt.Errorf("open replica database: %s", sanitizeError(err))
	}

	defer func() {
		if !success {
			replica.Close()
		}
	}()

	tunePool(replica, c.MaxOpenConnections, c.MaxIdleConnections)

	db := dbresolver.New(
		dbresolver.WithPrimaryDBs(primary),
		dbresolver.WithReplicaDBs(replica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB),
	)

	if c.MigrationsPath != "" {
		if err := runMigrations(ctx, primary, c.MigrationsPath, c.DatabaseName, c.Logger); err != nil {
			return err
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %s", sanitizeError(err))
	}

	c.db = db

	c.Logger.Log(ctx, log.LevelInfo, "connected to postgres", log.String("database", c.DatabaseName))

	success = true

	return nil
}

// DB returns the resolver, or an error when Connect has not run yet.
func (c *Connection) DB() (dbresolver.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, errors.New("postgres connection is not initialized")
	}

	return c.db, nil
}

// Close releases both pools.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	err := c.db.Close()
	c.db = nil

	return err
}

func tunePool(db *sql.DB, maxOpen, maxIdle int) {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
}

func runMigrations(ctx context.Context, primary *sql.DB, migrationsPath, databaseName string, logger log.Logger) error {
	absPath, err := filepath.Abs(filepath.Clean(migrationsPath))
	if err != nil {
		return fmt.Errorf("resolve migrations path: %w", err)
	}

	sourceURL := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}

	driver, err := migratepg.WithInstance(primary, &migratepg.Config{
		DatabaseName: databaseName,
		SchemaName:   "public",
	})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL.String(), databaseName, driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Log(ctx, log.LevelInfo, "no new migrations found")
			return nil
		}

		if errors.Is(err, os.ErrNotExist) {
			logger.Log(ctx, log.LevelWarn, "no migration files found, skipping migration step")
			return nil
		}

		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// sanitizeError strips credentials from connection errors before they reach
// logs.
func sanitizeError(err error) string {
	return credentialsPattern.ReplaceAllString(err.Error(), "://***@")
}
