package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *VectorStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "fnindex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewVectorStore(db)
}

func entry(id string, vector []float32, category string) Entry {
	return Entry{
		ID:       id,
		Vector:   vector,
		Document: "doc for " + id,
		Metadata: map[string]any{
			"repo":     "demo",
			"category": category,
			"receiver": "",
		},
	}
}

func TestVectorStore_UpsertAndQuery(t *testing.T) {
	vs := openTestStore(t)

	require.NoError(t, vs.Upsert([]Entry{
		entry("a", []float32{1, 0, 0}, "handler"),
		entry("b", []float32{0, 1, 0}, "service"),
		entry("c", []float32{0.9, 0.1, 0}, "handler"),
	}))

	count, err := vs.Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)

	matches, err := vs.Query([]float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "a", matches[0].ID)
	require.Equal(t, "c", matches[1].ID)
	require.Greater(t, matches[0].Score, matches[1].Score)
	require.InDelta(t, 1.0, float64(matches[0].Score), 0.001)
	require.InDelta(t, 0.0, float64(matches[0].Distance), 0.001)
}

func TestVectorStore_UpsertIdempotent(t *testing.T) {
	vs := openTestStore(t)

	batch := []Entry{
		entry("a", []float32{1, 0, 0}, "handler"),
		entry("b", []float32{0, 1, 0}, "service"),
	}
	require.NoError(t, vs.Upsert(batch))
	require.NoError(t, vs.Upsert(batch))

	count, err := vs.Count()
	require.NoError(t, err)
	require.Equal(t, 2, count, "re-upserting the same ids must replace, not duplicate")

	// Replacing an id updates its payload.
	updated := entry("a", []float32{0, 0, 1}, "repository")
	updated.Document = "updated"
	require.NoError(t, vs.Upsert([]Entry{updated}))

	matches, err := vs.Query([]float32{0, 0, 1}, 1, nil)
	require.NoError(t, err)
	require.Equal(t, "a", matches[0].ID)
	require.Equal(t, "updated", matches[0].Document)
	require.Equal(t, "repository", matches[0].Metadata["category"])
}

func TestVectorStore_DimensionMismatchRejectsWholeBatch(t *testing.T) {
	vs := openTestStore(t)

	err := vs.Upsert([]Entry{
		entry("a", []float32{1, 0, 0}, "handler"),
		entry("b", []float32{1, 0}, "service"),
	})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	count, err := vs.Count()
	require.NoError(t, err)
	require.Equal(t, 0, count, "no partial write on rejected batch")
}

func TestVectorStore_DimensionMismatchAgainstExisting(t *testing.T) {
	vs := openTestStore(t)

	require.NoError(t, vs.Upsert([]Entry{entry("a", []float32{1, 0, 0}, "handler")}))

	err := vs.Upsert([]Entry{entry("b", []float32{1, 0}, "service")})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	count, err := vs.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestVectorStore_QueryEmptyIndex(t *testing.T) {
	vs := openTestStore(t)

	matches, err := vs.Query([]float32{1, 0, 0}, 5, nil)
	require.NoError(t, err, "empty index is not an error")
	require.Empty(t, matches)
}

func TestVectorStore_QueryWithFilter(t *testing.T) {
	vs := openTestStore(t)

	require.NoError(t, vs.Upsert([]Entry{
		entry("a", []float32{1, 0, 0}, "handler"),
		entry("b", []float32{0.99, 0.01, 0}, "middleware"),
		entry("c", []float32{0, 1, 0}, "middleware"),
	}))

	matches, err := vs.Query([]float32{1, 0, 0}, 5, map[string]any{"category": "middleware"})
	require.NoError(t, err)
	require.Len(t, matches, 2, "fewer than k matches is fine, no padding")
	for _, m := range matches {
		require.Equal(t, "middleware", m.Metadata["category"])
	}
	// Higher-scoring non-middleware entry "a" must be absent.
	require.Equal(t, "b", matches[0].ID)

	none, err := vs.Query([]float32{1, 0, 0}, 5, map[string]any{"category": "repository"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestVectorStore_MetadataNormalization(t *testing.T) {
	vs := openTestStore(t)

	require.NoError(t, vs.Upsert([]Entry{{
		ID:     "a",
		Vector: []float32{1, 0},
		Metadata: map[string]any{
			"receiver":  nil, // absent optional field
			"lines":     12,
			"is_method": false,
			"repo":      "demo",
		},
	}}))

	all, err := vs.ListMetadata()
	require.NoError(t, err)
	require.Len(t, all, 1)

	meta := all[0]
	require.Equal(t, "", meta["receiver"], "nil must become empty string, never null")
	require.Equal(t, float64(12), meta["lines"])
	require.Equal(t, false, meta["is_method"])

	for key, value := range meta {
		require.NotNil(t, value, "metadata key %q must never hold null", key)
	}
}

func TestNormalizeMetadata(t *testing.T) {
	got := normalizeMetadata(map[string]any{
		"s":   "x",
		"n":   3,
		"b":   true,
		"nil": nil,
		"odd": []string{"a"},
	})

	require.Equal(t, "x", got["s"])
	require.Equal(t, 3, got["n"])
	require.Equal(t, true, got["b"])
	require.Equal(t, "", got["nil"])
	require.Equal(t, "[a]", got["odd"], "unsupported types degrade to strings")
}

func TestVectorStore_NumericFilterMatch(t *testing.T) {
	vs := openTestStore(t)

	require.NoError(t, vs.Upsert([]Entry{{
		ID:       "a",
		Vector:   []float32{1, 0},
		Metadata: map[string]any{"start_line": 10},
	}}))

	// JSON decoding yields float64; int filters must still match.
	matches, err := vs.Query([]float32{1, 0}, 5, map[string]any{"start_line": 10})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestVectorStore_NonComparableFilterValue(t *testing.T) {
	vs := openTestStore(t)

	require.NoError(t, vs.Upsert([]Entry{
		entry("a", []float32{1, 0, 0}, "handler"),
	}))

	// A slice filter value can never match a stored scalar, but it must
	// not panic the scan either.
	matches, err := vs.Query([]float32{1, 0, 0}, 5, map[string]any{
		"category": []string{"handler"},
	})
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestVectorStore_DeleteExcept(t *testing.T) {
	vs := openTestStore(t)

	require.NoError(t, vs.Upsert([]Entry{
		entry("a", []float32{1, 0}, "handler"),
		entry("b", []float32{0, 1}, "service"),
		entry("c", []float32{1, 1}, "other"),
	}))

	removed, err := vs.DeleteExcept([]string{"a", "c"})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	count, err := vs.Count()
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Keeping everything removes nothing.
	removed, err = vs.DeleteExcept([]string{"a", "c"})
	require.NoError(t, err)
	require.Equal(t, 0, removed)
}

func TestVectorStore_StableTieOrder(t *testing.T) {
	vs := openTestStore(t)

	// b and c have identical vectors, so identical scores.
	require.NoError(t, vs.Upsert([]Entry{
		entry("a", []float32{1, 0}, "x"),
		entry("b", []float32{0, 1}, "x"),
		entry("c", []float32{0, 1}, "x"),
	}))

	first, err := vs.Query([]float32{0, 1}, 3, nil)
	require.NoError(t, err)
	second, err := vs.Query([]float32{0, 1}, 3, nil)
	require.NoError(t, err)

	require.Equal(t, matchIDs(first), matchIDs(second), "tie order must be stable across queries")
	require.Equal(t, "a", first[2].ID)
}

func matchIDs(matches []Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}

func TestBlobRoundTrip(t *testing.T) {
	vector := []float32{1.5, -2.25, 0, 3.14159}
	got, err := blobToVector(vectorToBlob(vector))
	require.NoError(t, err)
	require.Equal(t, vector, got)

	_, err = blobToVector([]byte{1, 2, 3})
	require.Error(t, err)
}
