// Package snapshot implements the provider boundary over a SQLite
// snapshot of a wiki graph. A snapshot is captured once from another
// provider (live API or fixture) and then queried read-only, so repeated
// solves pay no network cost and see a stable graph.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/agentic-research/catsieve/internal/provider"
	_ "modernc.org/sqlite"
)

// edge kinds in the edges table
const (
	edgeMember = 0 // src category contains dst
	edgeLink   = 1 // src links to dst
)

const defaultBatch = 500

const schema = `
	CREATE TABLE IF NOT EXISTS pages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		ref         TEXT UNIQUE NOT NULL,
		title       TEXT UNIQUE NOT NULL,
		ns          INTEGER NOT NULL,
		redirect    INTEGER NOT NULL DEFAULT 0,
		redirect_to TEXT NOT NULL DEFAULT '',
		quality     INTEGER
	);
	CREATE TABLE IF NOT EXISTS edges (
		src  INTEGER NOT NULL,
		dst  INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		PRIMARY KEY (src, dst, kind)
	);
	CREATE INDEX IF NOT EXISTS edges_dst ON edges (dst, kind);
`

// Store is a SQLite-backed provider.Provider. Open for querying, Create
// for capturing.
type Store struct {
	db    *sql.DB
	batch int
}

// Open opens an existing snapshot read-only — snapshot data is immutable
// once captured.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)
	return &Store{db: db, batch: defaultBatch}, nil
}

// Create opens (or creates) a snapshot for writing and ensures the schema.
func Create(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("create snapshot %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close() // ignore error
		return nil, fmt.Errorf("create snapshot tables: %w", err)
	}
	return &Store{db: db, batch: defaultBatch}, nil
}

// SetBatchSize overrides the Members batch size (mostly for tests).
func (s *Store) SetBatchSize(n int) { s.batch = n }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Resolve implements provider.Provider.
func (s *Store) Resolve(ctx context.Context, title string) (provider.Page, error) {
	var pg provider.Page
	row := s.db.QueryRowContext(ctx, `SELECT ref, title, ns FROM pages WHERE title = ?`, title)
	if err := row.Scan(&pg.ID, &pg.Title, &pg.Namespace); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return provider.Page{}, provider.NewPermanent("resolve", title, provider.ErrNotFound)
		}
		return provider.Page{}, provider.NewTransient("resolve", title, err)
	}
	return pg, nil
}

// Members implements provider.Provider. The continuation token is a row
// offset; one extra row is fetched to decide whether more remain.
func (s *Store) Members(ctx context.Context, title string, dir provider.Direction, cont string) ([]provider.Page, string, error) {
	if _, err := s.Resolve(ctx, title); err != nil {
		return nil, "", err
	}

	offset := 0
	if cont != "" {
		n, err := strconv.Atoi(cont)
		if err != nil {
			return nil, "", provider.NewPermanent("members", title, fmt.Errorf("bad continuation token %q", cont))
		}
		offset = n
	}

	var q string
	var kind int
	switch dir {
	case provider.Sub:
		q, kind = memberQueryForward, edgeMember
	case provider.Super:
		q, kind = memberQueryReverse, edgeMember
	case provider.LinksOut:
		q, kind = memberQueryForward, edgeLink
	case provider.LinksIn:
		q, kind = memberQueryReverse, edgeLink
	default:
		return nil, "", provider.NewPermanent("members", title, fmt.Errorf("unknown direction %v", dir))
	}

	rows, err := s.db.QueryContext(ctx, q, title, kind, s.batch+1, offset)
	if err != nil {
		return nil, "", provider.NewTransient("members", title, err)
	}
	defer func() { _ = rows.Close() }()

	var out []provider.Page
	for rows.Next() {
		var pg provider.Page
		if err := rows.Scan(&pg.ID, &pg.Title, &pg.Namespace); err != nil {
			return nil, "", provider.NewTransient("members", title, err)
		}
		out = append(out, pg)
	}
	if err := rows.Err(); err != nil {
		return nil, "", provider.NewTransient("members", title, err)
	}

	next := ""
	if len(out) > s.batch {
		out = out[:s.batch]
		next = strconv.Itoa(offset + s.batch)
	}
	return out, next, nil
}

const memberQueryForward = `
	SELECT p2.ref, p2.title, p2.ns
	FROM pages p
	JOIN edges e ON e.src = p.id AND e.kind = ?2
	JOIN pages p2 ON p2.id = e.dst
	WHERE p.title = ?1
	ORDER BY p2.id
	LIMIT ?3 OFFSET ?4`

const memberQueryReverse = `
	SELECT p2.ref, p2.title, p2.ns
	FROM pages p
	JOIN edges e ON e.dst = p.id AND e.kind = ?2
	JOIN pages p2 ON p2.id = e.src
	WHERE p.title = ?1
	ORDER BY p2.id
	LIMIT ?3 OFFSET ?4`

// Attributes implements provider.Provider.
func (s *Store) Attributes(ctx context.Context, page provider.Page) (*provider.Attributes, error) {
	var (
		attrs    provider.Attributes
		redirect int
		quality  sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT ns, redirect, redirect_to, quality FROM pages WHERE ref = ?`, page.ID)
	if err := row.Scan(&attrs.Namespace, &redirect, &attrs.RedirectTarget, &quality); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, provider.NewPermanent("attributes", page.Title, provider.ErrNotFound)
		}
		return nil, provider.NewTransient("attributes", page.Title, err)
	}
	attrs.Redirect = redirect != 0
	if quality.Valid {
		attrs.Quality = int(quality.Int64)
		attrs.HasQuality = true
	}
	return &attrs, nil
}

// insertPage upserts a page and returns its internal row id.
func (s *Store) insertPage(ctx context.Context, tx *sql.Tx, pg provider.Page, attrs *provider.Attributes) (int64, error) {
	redirect := 0
	redirectTo := ""
	quality := sql.NullInt64{}
	if attrs != nil {
		if attrs.Redirect {
			redirect = 1
		}
		redirectTo = attrs.RedirectTarget
		if attrs.HasQuality {
			quality = sql.NullInt64{Int64: int64(attrs.Quality), Valid: true}
		}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pages (ref, title, ns, redirect, redirect_to, quality)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (ref) DO UPDATE SET redirect = excluded.redirect,
			redirect_to = excluded.redirect_to, quality = excluded.quality`,
		pg.ID, pg.Title, pg.Namespace, redirect, redirectTo, quality)
	if err != nil {
		return 0, fmt.Errorf("insert page %q: %w", pg.Title, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM pages WHERE ref = ?`, pg.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup page %q: %w", pg.Title, err)
	}
	return id, nil
}

func (s *Store) insertEdge(ctx context.Context, tx *sql.Tx, src, dst int64, kind int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO edges (src, dst, kind) VALUES (?, ?, ?)`, src, dst, kind)
	if err != nil {
		return fmt.Errorf("insert edge %d->%d: %w", src, dst, err)
	}
	return nil
}
