package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}

	for _, e := range entries {
		name := e.Name()

		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}

	assert.Equal(t, ups, downs)
}

func TestMigrationsCreateLedgerTables(t *testing.T) {
	var all strings.Builder

	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".up.sql") {
			return err
		}

		b, err := fs.ReadFile(migrationsFS, path)
		if err != nil {
			return err
		}

		all.Write(b)

		return nil
	})
	require.NoError(t, err)

	for _, want := range []string{
		"CREATE TABLE users",
		"CREATE TABLE invoices",
		"CREATE SEQUENCE invoice_number_seq",
		"CREATE TABLE payments",
		"CREATE TABLE activity_log",
	} {
		assert.Contains(t, all.String(), want)
	}
}
