// Package migration applies the versioned SQL files that define the jobs
// schema. Applied versions are tracked with a checksum so edited files are
// detected instead of silently skipped.
package migration

import (
	"cmp"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"fizetesi-info/internal/database"
)

// lockKey serialises concurrent migrators (server and CLI starting together).
const lockKey int64 = 0x66697a65

const (
	createTrackingSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectAppliedSQL = `SELECT version, checksum FROM schema_migrations`
	insertAppliedSQL = `INSERT INTO schema_migrations (version, name, checksum, applied_at) VALUES ($1, $2, $3, $4)`
)

var fileRe = regexp.MustCompile(`^V(\d+)__([A-Za-z0-9_.-]+)\.sql$`)

type Migration struct {
	Version  int64
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// Runner applies V<n>__<name>.sql files in version order. FS takes
// precedence; otherwise files are read from Dir, defaulting to a
// migrations directory next to the executable.
type Runner struct {
	FS     fs.FS
	Dir    string
	Logger *log.Logger
}

func (r Runner) Run(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return database.ErrNotConfigured
	}
	migs, err := r.load()
	if err != nil || len(migs) == 0 {
		return err
	}

	if _, err := db.ExecContext(ctx, createTrackingSQL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	if _, err := db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockKey)
	}()

	pending, err := pendingOf(ctx, db, migs)
	if err != nil {
		return err
	}
	for _, m := range pending {
		start := time.Now()
		if err := applyOne(ctx, db, m); err != nil {
			r.logf("migration=apply version=%d name=%s status=error err=%v", m.Version, m.Name, err)
			return err
		}
		r.logf("migration=apply version=%d name=%s status=ok duration=%s", m.Version, m.Name, time.Since(start).Round(time.Millisecond))
	}
	if len(pending) == 0 {
		r.logf("migration=apply status=up_to_date versions=%d", len(migs))
	}
	return nil
}

// Pending lists migrations not yet recorded in schema_migrations without
// applying them. A missing tracking table means everything is pending.
func (r Runner) Pending(ctx context.Context, db *sql.DB) ([]Migration, error) {
	if db == nil {
		return nil, database.ErrNotConfigured
	}
	migs, err := r.load()
	if err != nil || len(migs) == 0 {
		return nil, err
	}
	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return migs, nil
	}
	return pendingOf(ctx, db, migs)
}

func (r Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

func (r Runner) load() ([]Migration, error) {
	if r.FS != nil {
		return LoadMigrations(r.FS)
	}
	dir := strings.TrimSpace(r.Dir)
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(filepath.Dir(exe), "migrations")
	}
	return LoadMigrations(os.DirFS(dir))
}

// LoadMigrations reads and orders the migration files in src. A missing
// directory yields no migrations.
func LoadMigrations(src fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(src, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var migs []Migration
	for _, e := range entries {
		m := fileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version: %s", e.Name())
		}
		b, err := fs.ReadFile(src, e.Name())
		if err != nil {
			return nil, err
		}
		body := strings.TrimSpace(string(b))
		if body == "" {
			return nil, fmt.Errorf("empty migration file: %s", e.Name())
		}
		sum := sha256.Sum256([]byte(body))
		migs = append(migs, Migration{Version: v, Name: m[2], Filename: e.Name(), SQL: body, Checksum: hex.EncodeToString(sum[:])})
	}

	slices.SortFunc(migs, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	for i := 1; i < len(migs); i++ {
		if migs[i].Version == migs[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version: %d", migs[i].Version)
		}
	}
	return migs, nil
}

// pendingOf filters migs to the unapplied ones and rejects edited files.
func pendingOf(ctx context.Context, db *sql.DB, migs []Migration) ([]Migration, error) {
	applied, err := appliedChecksums(ctx, db)
	if err != nil {
		return nil, err
	}
	return diffApplied(migs, applied)
}

func diffApplied(migs []Migration, applied map[int64]string) ([]Migration, error) {
	var out []Migration
	for _, m := range migs {
		sum, ok := applied[m.Version]
		if !ok {
			out = append(out, m)
			continue
		}
		if sum != m.Checksum {
			return nil, fmt.Errorf("migration checksum mismatch: version=%d name=%s", m.Version, m.Name)
		}
	}
	return out, nil
}

func appliedChecksums(ctx context.Context, db *sql.DB) (map[int64]string, error) {
	rows, err := db.QueryContext(ctx, selectAppliedSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]string{}
	for rows.Next() {
		var v int64
		var sum string
		if err := rows.Scan(&v, &sum); err != nil {
			return nil, err
		}
		out[v] = sum
	}
	return out, rows.Err()
}

func applyOne(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("apply migration failed: version=%d file=%s: %w", m.Version, m.Filename, err)
	}
	if _, err := tx.ExecContext(ctx, insertAppliedSQL, m.Version, m.Name, m.Checksum, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}
