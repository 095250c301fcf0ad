package snapshotstore

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// WAL is the two-phase write-ahead staging area that resolves spec.md §9's
// Open Question (a): a drained batch is staged here BEFORE any object-store
// upload is attempted, and only removed once the upload and catalog
// registration both succeed. A crash between drain and removal leaves the
// batch staged for replay, so no record is ever lost to a mid-upload crash,
// and no record is double-counted once Clear runs.
//
// Grounded on the teacher's database package: it opens its SQLite connection
// via the blank-imported mattn/go-sqlite3 driver (database/database_test.go)
// and provisions schema with thrasher-corp/goose migrations rather than
// inline DDL (database/testhelpers/test_helpers.go's migrateDB), which
// staged_batches' schema setup now follows too. Row access stays on
// database/sql directly rather than sqlboiler-generated models — see
// DESIGN.md for why sqlboiler specifically could not be wired here.
type WAL struct {
	db *sql.DB
}

// OpenWAL opens (creating if necessary) a SQLite-backed WAL at path,
// applying the staged_batches schema migration on open.
func OpenWAL(path string) (*WAL, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open wal database")
	}
	if err := runMigrations(db, "sqlite3", sqliteMigrations, "migrations/sqlite3"); err != nil {
		db.Close()
		return nil, err
	}
	return &WAL{db: db}, nil
}

// Close releases the underlying database handle.
func (w *WAL) Close() error {
	return w.db.Close()
}

// Stage msgpack-encodes records and inserts them as one staged batch,
// returning the batch id Clear will later need.
func (w *WAL) Stage(records []DataRecord) (int64, error) {
	payload, err := msgpack.Marshal(records)
	if err != nil {
		return 0, errors.Wrap(err, "encode batch")
	}
	res, err := w.db.Exec(`INSERT INTO staged_batches (payload) VALUES (?)`, payload)
	if err != nil {
		return 0, errors.Wrap(err, "insert staged batch")
	}
	return res.LastInsertId()
}

// Clear removes a staged batch after its upload and catalog registration
// have both succeeded. Calling Clear twice on the same id is harmless.
func (w *WAL) Clear(id int64) error {
	_, err := w.db.Exec(`DELETE FROM staged_batches WHERE id = ?`, id)
	return errors.Wrap(err, "clear staged batch")
}

// Pending returns every staged batch not yet cleared, in insertion order,
// for replay on startup after an unclean shutdown.
func (w *WAL) Pending() ([]StagedBatch, error) {
	rows, err := w.db.Query(`SELECT id, payload FROM staged_batches ORDER BY id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query staged batches")
	}
	defer rows.Close()

	var out []StagedBatch
	for rows.Next() {
		var id int64
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, errors.Wrap(err, "scan staged batch")
		}
		var records []DataRecord
		if err := msgpack.Unmarshal(payload, &records); err != nil {
			return nil, errors.Wrap(err, "decode staged batch")
		}
		out = append(out, StagedBatch{ID: id, Records: records})
	}
	return out, rows.Err()
}

// StagedBatch is one WAL-resident batch awaiting upload+registration.
type StagedBatch struct {
	ID      int64
	Records []DataRecord
}
