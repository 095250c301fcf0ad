package snapshotstore

import (
	"database/sql"
	"embed"
	"io/fs"
	"os"
	gopath "path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/thrasher-corp/goose"
)

//go:embed migrations/sqlite3/*.sql
var sqliteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// runMigrations applies the embedded goose migrations for dialect against
// db, mirroring the teacher's migrateDB helper
// (database/testhelpers/test_helpers.go: goose.Run("up", db, dialect,
// MigrationDir, "")). The old goose API this fork exposes takes a directory
// path rather than an fs.FS, so the embedded files are staged to a scratch
// directory first and cleaned up once goose has run.
func runMigrations(db *sql.DB, dialect string, embedded embed.FS, embeddedDir string) error {
	scratch, err := os.MkdirTemp("", "marketcore-"+dialect+"-migrations")
	if err != nil {
		return errors.Wrap(err, "create migration staging dir")
	}
	defer os.RemoveAll(scratch)

	entries, err := fs.ReadDir(embedded, embeddedDir)
	if err != nil {
		return errors.Wrap(err, "read embedded migrations")
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(embedded, gopath.Join(embeddedDir, entry.Name()))
		if err != nil {
			return errors.Wrap(err, "read embedded migration "+entry.Name())
		}
		if err := os.WriteFile(filepath.Join(scratch, entry.Name()), data, 0o644); err != nil {
			return errors.Wrap(err, "stage migration "+entry.Name())
		}
	}

	return errors.Wrap(goose.Run("up", db, dialect, scratch, ""), "run goose migrations")
}
