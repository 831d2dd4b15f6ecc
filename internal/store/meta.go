package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schema contains the metadata table. row_id mirrors the chunk's position
// in the vector index; the two are kept row-for-row consistent.
const schema = `
CREATE TABLE IF NOT EXISTS chunks (
    row_id INTEGER PRIMARY KEY,
    document_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);

CREATE TABLE IF NOT EXISTS collection_meta (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);

INSERT OR IGNORE INTO collection_meta (key, value) VALUES ('generation', 0);
`

// openMetaDB creates or opens the collection's SQLite metadata database.
func openMetaDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening metadata database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging metadata database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running metadata migrations: %w", err)
	}

	return db, nil
}

// readGeneration returns the row-numbering generation committed in the
// metadata database.
func readGeneration(db *sql.DB) (uint64, error) {
	var gen uint64
	err := db.QueryRow(`SELECT value FROM collection_meta WHERE key = 'generation'`).Scan(&gen)
	if err != nil {
		return 0, fmt.Errorf("reading collection generation: %w", err)
	}
	return gen, nil
}

func scanChunk(rows *sql.Rows) (ChunkRecord, error) {
	var c ChunkRecord
	err := rows.Scan(&c.RowID, &c.DocumentID, &c.Filename, &c.ChunkIndex, &c.Text)
	return c, err
}
