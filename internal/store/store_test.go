package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := []byte(`{"matchId":"m1","currentTurn":3}`)
			require.NoError(t, st.Save(ctx, "m1", payload))

			got, err := st.Load(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Load(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSaveOverwritesExistingRecord(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "m1", []byte(`{"currentTurn":1}`)))
			require.NoError(t, st.Save(ctx, "m1", []byte(`{"currentTurn":2}`)))

			got, err := st.Load(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"currentTurn":2}`), got)
		})
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "m1", []byte(`{}`)))
			require.NoError(t, st.Delete(ctx, "m1"))

			_, err := st.Load(ctx, "m1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDeleteMissingIsNoError(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, st.Delete(context.Background(), "never-there"))
		})
	}
}

func TestRecordsAreIsolatedByMatch(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Save(ctx, "m1", []byte(`{"seed":1}`)))
			require.NoError(t, st.Save(ctx, "m2", []byte(`{"seed":2}`)))

			got, err := st.Load(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"seed":1}`), got)
		})
	}
}
