/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package vectorindex

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"etlvalid/internal/document"
	"etlvalid/internal/embedding"
	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
)

// indexFile is the sqlite database name inside an index directory.
const indexFile = "index.sqlite"

const storeSchema = `
CREATE TABLE IF NOT EXISTS index_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL,
    metadata TEXT NOT NULL,
    embedding BLOB NOT NULL
);
`

// Persist serializes the index to the directory at path. The write is
// atomic with respect to readers: entries go into a fresh temp
// directory that replaces the old one in a final rename, so a crash
// mid-build never leaves a half-written index behind. Persist also
// serializes concurrent builds against the same path.
func (idx *Index) Persist(path string) error {
	lock := pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	tmp := fmt.Sprintf("%s.build-%s", path, uuid.NewString()[:8])
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("failed to create index build directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := idx.writeStore(filepath.Join(tmp, indexFile)); err != nil {
		return err
	}

	old := path + ".old"
	os.RemoveAll(old)
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, old); err != nil {
			return fmt.Errorf("failed to move previous index aside: %w", err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		// Put the previous index back if the swap failed.
		os.Rename(old, path)
		return fmt.Errorf("failed to install new index: %w", err)
	}
	os.RemoveAll(old)

	logging.Info("vector index persisted", "path", path, "chunks", len(idx.entries))
	return nil
}

func (idx *Index) writeStore(file string) error {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(storeSchema); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	metaStmt, err := tx.Prepare(`INSERT INTO index_meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer metaStmt.Close()
	if _, err := metaStmt.Exec("model", idx.model); err != nil {
		return err
	}
	if _, err := metaStmt.Exec("dimensions", fmt.Sprint(idx.dimensions)); err != nil {
		return err
	}

	chunkStmt, err := tx.Prepare(`INSERT INTO chunks (content, metadata, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	for _, e := range idx.entries {
		meta, err := json.Marshal(e.chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode chunk metadata: %w", err)
		}
		if _, err := chunkStmt.Exec(e.chunk.Content, string(meta), serializeVector(e.vector)); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

// Load opens a previously persisted index. A missing or unreadable
// index directory yields an index-not-found error the caller handles
// by building embeddings first. A model mismatch between the stored
// index and the given provider is a fatal configuration error.
func Load(path string, provider embedding.Provider) (*Index, error) {
	lock := pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	file := filepath.Join(path, indexFile)
	if _, err := os.Stat(file); err != nil {
		return nil, errs.New(errs.KindIndexNotFound,
			fmt.Sprintf("no vector index found at %s (create embeddings first)", path))
	}

	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, errs.Wrap(errs.KindIndexNotFound,
			fmt.Sprintf("failed to open vector index at %s", path), err)
	}
	defer db.Close()

	idx := &Index{provider: provider}

	rows, err := db.Query(`SELECT key, value FROM index_meta`)
	if err != nil {
		return nil, errs.Wrap(errs.KindIndexNotFound,
			fmt.Sprintf("index at %s is not readable", path), err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.KindIndexNotFound, "index metadata is corrupt", err)
		}
		switch key {
		case "model":
			idx.model = value
		case "dimensions":
			fmt.Sscanf(value, "%d", &idx.dimensions)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindIndexNotFound, "index metadata is corrupt", err)
	}

	if idx.model != provider.ModelName() {
		return nil, errs.New(errs.KindConfig,
			fmt.Sprintf("index at %s was built with model %q but provider uses %q",
				path, idx.model, provider.ModelName()))
	}

	chunkRows, err := db.Query(`SELECT content, metadata, embedding FROM chunks ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(errs.KindIndexNotFound,
			fmt.Sprintf("index at %s is not readable", path), err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var (
			content  string
			metaJSON string
			blob     []byte
		)
		if err := chunkRows.Scan(&content, &metaJSON, &blob); err != nil {
			return nil, errs.Wrap(errs.KindIndexNotFound, "index chunk is corrupt", err)
		}
		meta := map[string]string{}
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, errs.Wrap(errs.KindIndexNotFound, "index chunk metadata is corrupt", err)
		}
		vec := deserializeVector(blob)
		if idx.dimensions != 0 && len(vec) != idx.dimensions {
			return nil, errs.New(errs.KindConfig,
				fmt.Sprintf("index at %s has a chunk with %d dimensions, expected %d",
					path, len(vec), idx.dimensions))
		}
		idx.entries = append(idx.entries, entry{
			vector: vec,
			chunk:  document.Document{Content: content, Metadata: meta},
		})
	}
	if err := chunkRows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindIndexNotFound, "index chunk is corrupt", err)
	}

	logging.Info("vector index loaded", "path", path, "chunks", len(idx.entries))
	return idx, nil
}

// serializeVector converts a float32 slice to little-endian bytes.
func serializeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

// deserializeVector converts bytes back to a float32 slice.
func deserializeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
