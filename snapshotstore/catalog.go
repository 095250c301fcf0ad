package snapshotstore

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/voltbridge/marketcore/internal/jsonutil"
)

// CatalogEntry records one registered snapshot file, mirroring the subset
// of an Iceberg manifest entry the scheduler needs: which files belong to
// a snapshot and when it was taken.
type CatalogEntry struct {
	SnapshotID   int64    `json:"snapshot_id"`
	Files        []string `json:"files"`
	TimestampMs  int64    `json:"timestamp_ms"`
	PartitionKey string   `json:"partition_key"`
}

// IcebergCatalog is the table-format metadata store snapshot_once
// registers each upload with (spec.md §4.8): snapshot ids are additive and
// monotonic, resolving Open Question (b) in favor of an append-only log
// rather than in-place mutation of a current-state document.
type IcebergCatalog interface {
	// Register appends a new snapshot entry for files uploaded under
	// partitionKey, returning the assigned (monotonically increasing)
	// snapshot id.
	Register(partitionKey string, files []string, timestampMs int64) (int64, error)
	// CurrentSnapshotID returns the most recently registered snapshot id,
	// or 0 if none has been registered yet.
	CurrentSnapshotID() (int64, error)
	// Snapshots returns every registered entry in registration order.
	Snapshots() ([]CatalogEntry, error)
}

// jsonCatalogDoc is the on-disk shape of JSONCatalog's single metadata
// file, matching the Iceberg convention of a monotonic current_snapshot_id
// plus an append-only snapshots list.
type jsonCatalogDoc struct {
	FormatVersion     int            `json:"format_version"`
	CurrentSnapshotID int64          `json:"current_snapshot_id"`
	Snapshots         []CatalogEntry `json:"snapshots"`
}

// JSONCatalog is the default IcebergCatalog implementation: a single JSON
// metadata file, sufficient for single-node deployments and for the
// idempotent-partitioning property under test (spec.md §8).
type JSONCatalog struct {
	mu   sync.Mutex
	path string
}

// NewJSONCatalog opens (creating if necessary) a JSONCatalog at path.
func NewJSONCatalog(path string) (*JSONCatalog, error) {
	c := &JSONCatalog{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create catalog directory")
		}
		if err := c.write(jsonCatalogDoc{FormatVersion: 1}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *JSONCatalog) read() (jsonCatalogDoc, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return jsonCatalogDoc{}, errors.Wrap(err, "read catalog")
	}
	var doc jsonCatalogDoc
	if err := jsonutil.Unmarshal(data, &doc); err != nil {
		return jsonCatalogDoc{}, errors.Wrap(err, "decode catalog")
	}
	return doc, nil
}

func (c *JSONCatalog) write(doc jsonCatalogDoc) error {
	data, err := jsonutil.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode catalog")
	}
	return errors.Wrap(os.WriteFile(c.path, data, 0o644), "write catalog")
}

// Register implements IcebergCatalog.
func (c *JSONCatalog) Register(partitionKey string, files []string, timestampMs int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read()
	if err != nil {
		return 0, err
	}
	doc.CurrentSnapshotID++
	doc.Snapshots = append(doc.Snapshots, CatalogEntry{
		SnapshotID:   doc.CurrentSnapshotID,
		Files:        files,
		TimestampMs:  timestampMs,
		PartitionKey: partitionKey,
	})
	if err := c.write(doc); err != nil {
		return 0, err
	}
	return doc.CurrentSnapshotID, nil
}

// CurrentSnapshotID implements IcebergCatalog.
func (c *JSONCatalog) CurrentSnapshotID() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.read()
	if err != nil {
		return 0, err
	}
	return doc.CurrentSnapshotID, nil
}

// Snapshots implements IcebergCatalog.
func (c *JSONCatalog) Snapshots() ([]CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.read()
	if err != nil {
		return nil, err
	}
	return doc.Snapshots, nil
}

// PostgresCatalog is an IcebergCatalog implementation backed by a
// Postgres table, for deployments sharing catalog state across multiple
// scheduler instances rather than a single JSON file. Grounded on the
// teacher's database package, which registers both the sqlite3 and pq
// drivers for its own multi-backend Instance (database/database_test.go)
// and provisions schema through thrasher-corp/goose migrations rather than
// inline DDL (database/testhelpers/test_helpers.go's migrateDB), which
// catalog_snapshots' schema setup now follows too. Row access stays on
// database/sql directly rather than sqlboiler-generated models — see
// DESIGN.md for why sqlboiler specifically could not be wired here.
type PostgresCatalog struct {
	db *sql.DB
}

// OpenPostgresCatalog connects to a Postgres database via dsn, applying the
// catalog_snapshots schema migration on open.
func OpenPostgresCatalog(dsn string) (*PostgresCatalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres catalog")
	}
	if err := runMigrations(db, "postgres", postgresMigrations, "migrations/postgres"); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresCatalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *PostgresCatalog) Close() error {
	return c.db.Close()
}

// Register implements IcebergCatalog.
func (c *PostgresCatalog) Register(partitionKey string, files []string, timestampMs int64) (int64, error) {
	encoded, err := jsonutil.Marshal(files)
	if err != nil {
		return 0, errors.Wrap(err, "encode files")
	}
	var id int64
	err = c.db.QueryRow(
		`INSERT INTO catalog_snapshots (partition_key, files, timestamp_ms) VALUES ($1, $2, $3) RETURNING snapshot_id`,
		partitionKey, string(encoded), timestampMs,
	).Scan(&id)
	return id, errors.Wrap(err, "insert catalog snapshot")
}

// CurrentSnapshotID implements IcebergCatalog.
func (c *PostgresCatalog) CurrentSnapshotID() (int64, error) {
	var id sql.NullInt64
	err := c.db.QueryRow(`SELECT MAX(snapshot_id) FROM catalog_snapshots`).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "query current snapshot id")
	}
	return id.Int64, nil
}

// Snapshots implements IcebergCatalog.
func (c *PostgresCatalog) Snapshots() ([]CatalogEntry, error) {
	rows, err := c.db.Query(`SELECT snapshot_id, partition_key, files, timestamp_ms FROM catalog_snapshots ORDER BY snapshot_id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query catalog snapshots")
	}
	defer rows.Close()

	var out []CatalogEntry
	for rows.Next() {
		var entry CatalogEntry
		var filesJSON string
		if err := rows.Scan(&entry.SnapshotID, &entry.PartitionKey, &filesJSON, &entry.TimestampMs); err != nil {
			return nil, errors.Wrap(err, "scan catalog snapshot")
		}
		if err := jsonutil.Unmarshal([]byte(filesJSON), &entry.Files); err != nil {
			return nil, errors.Wrap(err, "decode files")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
