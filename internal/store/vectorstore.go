package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/DreamCats/fnindex/internal/embedding"
)

// ErrDimensionMismatch is returned when an upsert batch contains vectors
// of differing dimensionality, or vectors whose dimensionality differs
// from what the index already holds. The whole batch is rejected.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Entry is the persisted unit of the vector index.
type Entry struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]any
}

// Match is one ranked result of a similarity query.
type Match struct {
	ID       string
	Document string
	Metadata map[string]any
	Score    float32 // cosine similarity, higher is better
	Distance float32 // 1 - Score
}

// VectorStore provides persistent vector storage and similarity search
type VectorStore struct {
	db *DB
}

// NewVectorStore creates a new vector store
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db}
}

// Upsert inserts or replaces entries by id in one transaction.
// Every vector in the batch must share one dimensionality, matching any
// entries already stored; otherwise the whole batch is rejected with
// ErrDimensionMismatch and nothing is written.
func (v *VectorStore) Upsert(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	dim := len(entries[0].Vector)
	if dim == 0 {
		return fmt.Errorf("entry %s has an empty vector: %w", entries[0].ID, ErrDimensionMismatch)
	}
	for _, entry := range entries {
		if len(entry.Vector) != dim {
			return fmt.Errorf("entry %s has dimension %d, batch has %d: %w",
				entry.ID, len(entry.Vector), dim, ErrDimensionMismatch)
		}
	}

	existing, err := v.storedDimension()
	if err != nil {
		return err
	}
	if existing > 0 && existing != dim {
		return fmt.Errorf("index holds dimension %d, batch has %d: %w", existing, dim, ErrDimensionMismatch)
	}

	tx, err := v.db.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entries (id, vector, dimension, document, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, entry := range entries {
		metaJSON, err := json.Marshal(normalizeMetadata(entry.Metadata))
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", entry.ID, err)
		}
		if _, err := stmt.Exec(entry.ID, vectorToBlob(entry.Vector), dim, entry.Document, string(metaJSON), now); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// Query returns the k nearest entries by cosine similarity, optionally
// restricted to entries whose metadata exactly matches every key in
// filter. Fewer than k matches is not an error; an empty index yields
// an empty result set.
func (v *VectorStore) Query(queryVector []float32, k int, filter map[string]any) ([]Match, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if k <= 0 {
		return nil, nil
	}

	// Full scan with in-process scoring; the corpus is bounded
	// (thousands of units, not millions).
	rows, err := v.db.sqlDB.Query("SELECT id, vector, document, metadata FROM entries")
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var id, document, metaJSON string
		var blob []byte
		if err := rows.Scan(&id, &blob, &document, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		vector, err := blobToVector(blob)
		if err != nil {
			continue // Skip malformed vectors
		}
		if len(vector) != len(queryVector) {
			continue
		}

		meta, err := decodeMetadata(metaJSON)
		if err != nil {
			continue
		}
		if !metadataMatches(meta, filter) {
			continue
		}

		score := embedding.Similarity(queryVector, vector)
		matches = append(matches, Match{
			ID:       id,
			Document: document,
			Metadata: meta,
			Score:    score,
			Distance: 1 - score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	sortMatches(matches)

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Count returns the number of entries stored
func (v *VectorStore) Count() (int, error) {
	var count int
	if err := v.db.sqlDB.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// ListMetadata returns the metadata of every stored entry.
func (v *VectorStore) ListMetadata() ([]map[string]any, error) {
	rows, err := v.db.sqlDB.Query("SELECT metadata FROM entries")
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	var all []map[string]any
	for rows.Next() {
		var metaJSON string
		if err := rows.Scan(&metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		meta, err := decodeMetadata(metaJSON)
		if err != nil {
			continue
		}
		all = append(all, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return all, nil
}

// DeleteExcept removes every entry whose id is not in keep. Used after
// a reindex to drop units that no longer exist in the corpus snapshot.
func (v *VectorStore) DeleteExcept(keep []string) (int, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}

	rows, err := v.db.sqlDB.Query("SELECT id FROM entries")
	if err != nil {
		return 0, fmt.Errorf("failed to query ids: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan row: %w", err)
		}
		if !keepSet[id] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := v.db.sqlDB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM entries WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range stale {
		if _, err := stmt.Exec(id); err != nil {
			return 0, fmt.Errorf("failed to delete entry %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(stale), nil
}

// storedDimension returns the dimensionality of stored vectors, or 0
// when the index is empty.
func (v *VectorStore) storedDimension() (int, error) {
	var dim int
	err := v.db.sqlDB.QueryRow("SELECT dimension FROM entries LIMIT 1").Scan(&dim)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read stored dimension: %w", err)
	}
	return dim, nil
}

// normalizeMetadata maps every value to the flat string/number/boolean
// shape the storage accepts. Absent optional fields become the empty
// string, never null.
func normalizeMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for key, value := range meta {
		switch v := value.(type) {
		case nil:
			out[key] = ""
		case string, bool, int, int32, int64, float32, float64:
			out[key] = v
		default:
			out[key] = fmt.Sprint(v)
		}
	}
	return out
}

// decodeMetadata parses the stored JSON metadata object.
func decodeMetadata(metaJSON string) (map[string]any, error) {
	meta := make(map[string]any)
	if metaJSON == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// metadataMatches reports whether meta exactly matches every key in filter.
func metadataMatches(meta, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := meta[key]
		if !ok || !valueEqual(got, want) {
			return false
		}
	}
	return true
}

// valueEqual compares metadata values, treating all numeric types as
// float64 the way JSON decoding does.
func valueEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	// == panics on non-comparable filter values (slices, maps).
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Helper functions for vector serialization

// vectorToBlob converts a float32 slice to a little-endian binary blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:i*4+4], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a binary blob back to a float32 slice
func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob size %d is not a multiple of 4", len(blob))
	}

	vector := make([]float32, len(blob)/4)
	for i := 0; i < len(vector); i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vector, nil
}

// sortMatches sorts matches by score (descending) using insertion sort,
// which is stable: ties keep their scan order.
func sortMatches(matches []Match) {
	for i := 1; i < len(matches); i++ {
		key := matches[i]
		j := i - 1
		for j >= 0 && matches[j].Score < key.Score {
			matches[j+1] = matches[j]
			j--
		}
		matches[j+1] = key
	}
}
