// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package graph

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kraklabs/quadmind/pkg/rdf"
)

// SQLiteEngine is the persistent quad store. Quads live in a single
// table keyed by the N-Triples encoding of their terms, which gives set
// semantics for free. The engine has no SPARQL evaluator: Query and
// Update report ErrSPARQLUnsupported.
type SQLiteEngine struct {
	db       *sql.DB
	path     string
	readOnly bool

	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens (creating if necessary) a quad store at path. In
// read-only mode the file must already exist and no schema is applied.
func OpenSQLite(path string, readOnly bool) (*SQLiteEngine, error) {
	dsn := "file:" + path + "?_journal_mode=WAL&_synchronous=NORMAL"
	if readOnly {
		dsn += "&mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, engineErr("open", path, err)
	}

	e := &SQLiteEngine{db: db, path: path, readOnly: readOnly}

	if !readOnly {
		if err := e.ensureSchema(); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		// Force the connection so a missing or unreadable file fails here,
		// not on first use.
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, engineErr("open", path, err)
		}
	}

	return e, nil
}

// ensureSchema creates the quads table and its lookup indexes.
// Idempotent and safe to call multiple times.
func (e *SQLiteEngine) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quads (
			subject   TEXT NOT NULL,
			predicate TEXT NOT NULL,
			object    TEXT NOT NULL,
			graph     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (subject, predicate, object, graph)
		)`,
		`CREATE INDEX IF NOT EXISTS quads_pred_obj ON quads (predicate, object)`,
		`CREATE INDEX IF NOT EXISTS quads_obj ON quads (object)`,
	}
	for _, stmt := range stmts {
		if _, err := e.db.Exec(stmt); err != nil {
			return engineErr("schema", e.path, err)
		}
	}
	return nil
}

// Path returns the on-disk location of the store.
func (e *SQLiteEngine) Path() string { return e.path }

// ReadOnly reports whether the engine was opened read-only.
func (e *SQLiteEngine) ReadOnly() bool { return e.readOnly }

// Add inserts a quad. Re-adding an existing quad is a no-op.
func (e *SQLiteEngine) Add(ctx context.Context, q rdf.Quad) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return engineErr("add", e.path, ErrClosed)
	}
	if e.readOnly {
		return engineErr("add", e.path, ErrReadOnly)
	}
	_, err := e.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO quads (subject, predicate, object, graph) VALUES (?, ?, ?, ?)`,
		q.Subject.String(), q.Predicate.String(), q.Object.String(), graphKey(q))
	if err != nil {
		return engineErr("add", e.path, err)
	}
	return nil
}

// Remove deletes a quad if present.
func (e *SQLiteEngine) Remove(ctx context.Context, q rdf.Quad) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return engineErr("remove", e.path, ErrClosed)
	}
	if e.readOnly {
		return engineErr("remove", e.path, ErrReadOnly)
	}
	_, err := e.db.ExecContext(ctx,
		`DELETE FROM quads WHERE subject = ? AND predicate = ? AND object = ? AND graph = ?`,
		q.Subject.String(), q.Predicate.String(), q.Object.String(), graphKey(q))
	if err != nil {
		return engineErr("remove", e.path, err)
	}
	return nil
}

// Match returns all default-graph quads matching the pattern. Nil terms
// are wildcards.
func (e *SQLiteEngine) Match(ctx context.Context, subject, predicate, object *rdf.Term) ([]rdf.Quad, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, engineErr("match", e.path, ErrClosed)
	}

	var (
		conds = []string{"graph = ''"}
		args  []any
	)
	if subject != nil {
		conds = append(conds, "subject = ?")
		args = append(args, subject.String())
	}
	if predicate != nil {
		conds = append(conds, "predicate = ?")
		args = append(args, predicate.String())
	}
	if object != nil {
		conds = append(conds, "object = ?")
		args = append(args, object.String())
	}

	query := `SELECT subject, predicate, object FROM quads WHERE ` + strings.Join(conds, " AND ")
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engineErr("match", e.path, err)
	}
	defer rows.Close()

	var out []rdf.Quad
	for rows.Next() {
		var s, p, o string
		if err := rows.Scan(&s, &p, &o); err != nil {
			return nil, engineErr("match", e.path, err)
		}
		q, err := decodeQuad(s, p, o)
		if err != nil {
			return nil, engineErr("match", e.path, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, engineErr("match", e.path, err)
	}
	return out, nil
}

// Query reports that the SQLite engine has no SPARQL evaluator.
func (e *SQLiteEngine) Query(ctx context.Context, sparql string) (*QueryResult, error) {
	return nil, engineErr("query", e.path, ErrSPARQLUnsupported)
}

// Update reports that the SQLite engine has no SPARQL evaluator.
func (e *SQLiteEngine) Update(ctx context.Context, sparql string) error {
	return engineErr("update", e.path, ErrSPARQLUnsupported)
}

// Backup writes a consistent copy of the store to dest using SQLite's
// online VACUUM INTO, so it is safe while the store is open.
func (e *SQLiteEngine) Backup(ctx context.Context, dest string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return engineErr("backup", e.path, ErrClosed)
	}
	if _, err := e.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return engineErr("backup", e.path, err)
	}
	return nil
}

// Optimize runs SQLite maintenance: statistics refresh plus compaction.
func (e *SQLiteEngine) Optimize(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return engineErr("optimize", e.path, ErrClosed)
	}
	if e.readOnly {
		return nil
	}
	if _, err := e.db.ExecContext(ctx, `PRAGMA optimize`); err != nil {
		return engineErr("optimize", e.path, err)
	}
	if _, err := e.db.ExecContext(ctx, `VACUUM`); err != nil {
		return engineErr("optimize", e.path, err)
	}
	return nil
}

// Close closes the database connection. Closing twice is safe.
func (e *SQLiteEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.db.Close()
}

// Count returns the number of default-graph quads in the store.
func (e *SQLiteEngine) Count(ctx context.Context) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return 0, engineErr("count", e.path, ErrClosed)
	}
	var n int
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quads WHERE graph = ''`).Scan(&n); err != nil {
		return 0, engineErr("count", e.path, err)
	}
	return n, nil
}

func graphKey(q rdf.Quad) string {
	if q.Graph.Value == "" {
		return ""
	}
	return q.Graph.String()
}

func decodeQuad(s, p, o string) (rdf.Quad, error) {
	sub, err := rdf.ParseTerm(s)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decode subject: %w", err)
	}
	pred, err := rdf.ParseTerm(p)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decode predicate: %w", err)
	}
	obj, err := rdf.ParseTerm(o)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decode object: %w", err)
	}
	return rdf.NewQuad(sub, pred, obj), nil
}
