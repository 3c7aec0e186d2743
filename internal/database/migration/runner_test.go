package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"fizetesi-info/internal/database"
	"fizetesi-info/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_OrdersAndChecksums(t *testing.T) {
	src := fstest.MapFS{
		"V2__add_index.sql": {Data: []byte("CREATE INDEX a ON b (c);\n")},
		"V1__init.sql":      {Data: []byte("  CREATE TABLE b (c INT);  ")},
		"README.md":         {Data: []byte("ignored")},
		"V3_bad_name.sql":   {Data: []byte("SELECT 1")},
	}

	migs, err := LoadMigrations(src)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Equal(t, "init", migs[0].Name)
	assert.Equal(t, "CREATE TABLE b (c INT);", migs[0].SQL)
	assert.Len(t, migs[0].Checksum, 64)
	assert.Equal(t, int64(2), migs[1].Version)
}

func TestLoadMigrations_Errors(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"V1__empty.sql": {Data: []byte("   ")}})
	assert.ErrorContains(t, err, "empty migration")

	_, err = LoadMigrations(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1")},
		"V01__b.sql": {Data: []byte("SELECT 2")},
	})
	assert.ErrorContains(t, err, "duplicate migration version")
}

func TestLoadMigrations_Embedded(t *testing.T) {
	migs, err := LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS jobs")
	assert.Contains(t, migs[0].SQL, "UNIQUE (source_portal, job_key)")
	require.GreaterOrEqual(t, len(migs), 2)
	assert.Equal(t, int64(2), migs[1].Version)
	assert.Contains(t, migs[1].SQL, "ADD COLUMN IF NOT EXISTS enriched")
}

func TestRun_NilDB(t *testing.T) {
	assert.ErrorIs(t, Runner{FS: migrations.FS}.Run(context.Background(), nil), database.ErrNotConfigured)
}

func TestDiffApplied(t *testing.T) {
	migs, err := LoadMigrations(fstest.MapFS{
		"V1__a.sql": {Data: []byte("SELECT 1")},
		"V2__b.sql": {Data: []byte("SELECT 2")},
		"V3__c.sql": {Data: []byte("SELECT 3")},
	})
	require.NoError(t, err)

	pending, err := diffApplied(migs, map[int64]string{1: migs[0].Checksum})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].Name)
	assert.Equal(t, "c", pending[1].Name)

	_, err = diffApplied(migs, map[int64]string{2: "edited"})
	assert.ErrorContains(t, err, "checksum mismatch: version=2 name=b")
}

func TestRunner_DirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "V7__seed.sql"), []byte("SELECT 7"), 0o600))

	migs, err := Runner{Dir: dir}.load()
	require.NoError(t, err)
	require.Len(t, migs, 1)
	assert.Equal(t, int64(7), migs[0].Version)

	migs, err = Runner{Dir: filepath.Join(dir, "missing")}.load()
	require.NoError(t, err)
	assert.Empty(t, migs)
}

func TestPending_NilDB(t *testing.T) {
	_, err := Runner{FS: migrations.FS}.Pending(context.Background(), nil)
	assert.ErrorIs(t, err, database.ErrNotConfigured)
}
