// Package library persists named patterns in SQLite and compiles them to
// matcher trees on demand. Each pattern is content-addressed by the BLAKE3
// digest of its source, which also keys the compiled-matcher cache.
package library

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/Cadence/core/cache"
	"github.com/FocuswithJustin/Cadence/core/errors"
	"github.com/FocuswithJustin/Cadence/core/match"
	"github.com/FocuswithJustin/Cadence/core/pattern"
	"github.com/FocuswithJustin/Cadence/core/sqlite"
	"github.com/FocuswithJustin/Cadence/internal/logging"
	"github.com/FocuswithJustin/Cadence/internal/validation"
)

// Pattern is one stored pattern record.
type Pattern struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

// Library is a SQLite-backed store of named patterns with an LRU cache of
// compiled matcher trees.
type Library struct {
	db       *sql.DB
	matchers *cache.MatcherCache
}

const schema = `
CREATE TABLE IF NOT EXISTS patterns (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	source     TEXT NOT NULL,
	digest     TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Open opens (creating if necessary) a pattern library at path.
func Open(path string) (*Library, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing library schema")
	}
	return &Library{
		db:       db,
		matchers: cache.NewDefaultMatcherCache(),
	}, nil
}

// Close closes the underlying database.
func (l *Library) Close() error {
	return l.db.Close()
}

// Digest returns the BLAKE3 content digest of a pattern source, hex encoded.
func Digest(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Add validates, compiles, and stores a new pattern. The compile step is a
// syntax check only; the compiled tree is discarded and rebuilt through the
// cache on first use.
func (l *Library) Add(name, source string) (*Pattern, error) {
	if err := validation.ValidatePatternName(name); err != nil {
		return nil, err
	}
	if _, err := pattern.Compile(source); err != nil {
		return nil, err
	}

	p := &Pattern{
		ID:        uuid.New(),
		Name:      name,
		Source:    source,
		Digest:    Digest(source),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if existing, err := l.Get(name); err == nil && existing != nil {
		return nil, fmt.Errorf("pattern %q: %w", name, errors.ErrAlreadyExists)
	}

	_, err := l.db.Exec(
		`INSERT INTO patterns (id, name, source, digest, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), p.Name, p.Source, p.Digest, p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "storing pattern %q", name)
	}
	return p, nil
}

// Get returns the stored pattern with the given name.
func (l *Library) Get(name string) (*Pattern, error) {
	row := l.db.QueryRow(
		`SELECT id, name, source, digest, created_at FROM patterns WHERE name = ?`, name)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("pattern", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading pattern %q", name)
	}
	return p, nil
}

// List returns every stored pattern, ordered by name.
func (l *Library) List() ([]*Pattern, error) {
	rows, err := l.db.Query(
		`SELECT id, name, source, digest, created_at FROM patterns ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "listing patterns")
	}
	defer rows.Close()

	var out []*Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, errors.Wrap(err, "listing patterns")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Remove deletes the pattern with the given name and drops its compiled
// form from the cache.
func (l *Library) Remove(name string) error {
	p, err := l.Get(name)
	if err != nil {
		return err
	}
	if _, err := l.db.Exec(`DELETE FROM patterns WHERE name = ?`, name); err != nil {
		return errors.Wrapf(err, "removing pattern %q", name)
	}
	l.matchers.Remove(p.Digest)
	return nil
}

// Compile returns the compiled matcher tree for the named pattern, serving
// repeat requests from the cache. Matcher trees are immutable, so a cached
// tree may be shared by concurrent sessions.
func (l *Library) Compile(name string) (match.Matcher[any], error) {
	p, err := l.Get(name)
	if err != nil {
		return nil, err
	}
	if m, ok := l.matchers.Get(p.Digest); ok {
		logging.PatternCompiled(p.Digest, true)
		return m, nil
	}
	m, err := pattern.Compile(p.Source)
	if err != nil {
		return nil, err
	}
	l.matchers.Put(p.Digest, m)
	logging.PatternCompiled(p.Digest, false)
	return m, nil
}

// CacheStats exposes compiled-matcher cache statistics.
func (l *Library) CacheStats() cache.Stats {
	return l.matchers.Stats()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(s scanner) (*Pattern, error) {
	var (
		id, name, source, digest, created string
	)
	if err := s.Scan(&id, &name, &source, &digest, &created); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt pattern id %q: %w", id, err)
	}
	at, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("corrupt pattern timestamp %q: %w", created, err)
	}
	return &Pattern{
		ID:        uid,
		Name:      name,
		Source:    source,
		Digest:    digest,
		CreatedAt: at,
	}, nil
}
