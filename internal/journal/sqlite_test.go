package journal

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Record{
		Bucket: "dst",
		Key:    "out/a.parquet",
		Status: StatusCompleted,
	}))

	got, err := store.Get("dst", "out/a.parquet")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("dst", "never-seen.parquet")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Record{
		Bucket:    "dst",
		Key:       "out/a.parquet",
		Status:    StatusFailed,
		LastError: "upload timed out",
	}))
	require.NoError(t, store.Save(&Record{
		Bucket: "dst",
		Key:    "out/a.parquet",
		Status: StatusCompleted,
	}))

	got, err := store.Get("dst", "out/a.parquet")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusCompleted, got.Status)

	failed, err := store.ListFailed()
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestSQLiteStoreListFailed(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(&Record{
			Bucket:    "dst",
			Key:       fmt.Sprintf("out/%d.parquet", i),
			Status:    StatusFailed,
			LastError: "decode error",
		}))
	}
	require.NoError(t, store.Save(&Record{
		Bucket: "dst",
		Key:    "out/ok.parquet",
		Status: StatusCompleted,
	}))

	failed, err := store.ListFailed()
	require.NoError(t, err)
	assert.Len(t, failed, 3)
	for _, r := range failed {
		assert.Equal(t, "decode error", r.LastError)
	}
}

func TestSQLiteStoreConcurrentSaves(t *testing.T) {
	store := newTestStore(t)

	const writers = 8
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				err := store.Save(&Record{
					Bucket: "dst",
					Key:    fmt.Sprintf("out/%d-%d.parquet", w, i),
					Status: StatusCompleted,
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()
}
