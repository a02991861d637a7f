// Package reviewdb opens the review database shared by a source and
// destination endpoint and pins which pair owns it.
package reviewdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/limsync/limsync/internal/constants"
	"github.com/limsync/limsync/internal/ctxlog"
	"github.com/limsync/limsync/internal/endpoint"
	"github.com/limsync/limsync/internal/paths"
)

const defaultBusyTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS endpoint_pair (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	source      TEXT NOT NULL,
	destination TEXT NOT NULL,
	created_at  TEXT NOT NULL
)`

// Options describes parameters for opening a review database.
type Options struct {
	Path     string          // Optional override for the database path
	Resolver *paths.Resolver // Home directory used when Path is empty (defaults to the current user)
}

// DB is an open review database.
type DB struct {
	db          *sql.DB
	path        string
	source      string
	destination string
}

// PairMismatchError indicates the database at Path was created for a
// different endpoint pair.
type PairMismatchError struct {
	Path        string
	Source      string
	Destination string
}

func (e *PairMismatchError) Error() string {
	return fmt.Sprintf("review database %s belongs to %s -> %s", e.Path, e.Source, e.Destination)
}

// IsPairMismatch returns true when err is (or wraps) a PairMismatchError.
func IsPairMismatch(err error) bool {
	var target *PairMismatchError
	return errors.As(err, &target)
}

// Open opens or creates the review database for source and destination.
func Open(ctx context.Context, source, destination endpoint.Endpoint, opts Options) (*DB, error) {
	logger := ctxlog.FromContext(ctx)

	dbPath := opts.Path
	if dbPath == "" {
		resolver := opts.Resolver
		if resolver == nil {
			var err error
			resolver, err = paths.NewResolver()
			if err != nil {
				return nil, err
			}
		}
		var err error
		dbPath, err = endpoint.ReviewDBPathIn(resolver, source, destination)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("reviewdb: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &DB{
		db:          db,
		path:        dbPath,
		source:      source.String(),
		destination: destination.String(),
	}

	if err := r.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := os.Chmod(dbPath, constants.FilePermissions); err != nil {
		db.Close()
		return nil, fmt.Errorf("reviewdb: set permissions: %w", err)
	}

	logger.Debug("review database ready", "path", dbPath, "source", r.source, "destination", r.destination)
	return r, nil
}

func (r *DB) init(ctx context.Context) error {
	pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", defaultBusyTimeout.Milliseconds())
	if _, err := r.db.ExecContext(ctx, pragma); err != nil {
		return fmt.Errorf("reviewdb: apply pragma: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("reviewdb: apply schema: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO endpoint_pair (id, source, destination, created_at) VALUES (1, ?, ?, ?)`,
		r.source, r.destination, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("reviewdb: record endpoint pair: %w", err)
	}

	var source, destination string
	err = r.db.QueryRowContext(ctx,
		`SELECT source, destination FROM endpoint_pair WHERE id = 1`).Scan(&source, &destination)
	if err != nil {
		return fmt.Errorf("reviewdb: read endpoint pair: %w", err)
	}

	if source != r.source || destination != r.destination {
		return &PairMismatchError{Path: r.path, Source: source, Destination: destination}
	}
	return nil
}

// Path returns the database file path.
func (r *DB) Path() string { return r.path }

// Source returns the canonical source endpoint string.
func (r *DB) Source() string { return r.source }

// Destination returns the canonical destination endpoint string.
func (r *DB) Destination() string { return r.destination }

// SQL exposes the underlying handle for the synchronization engine.
func (r *DB) SQL() *sql.DB { return r.db }

// Close closes the database.
func (r *DB) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
