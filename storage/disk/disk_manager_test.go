package disk

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskManager(t *testing.T) {
	t.Run("page ids are allocated monotonically", func(t *testing.T) {
		dm := newTestManager(t)

		assert.Equal(t, int64(0), dm.AllocatePage())
		assert.Equal(t, int64(1), dm.AllocatePage())
		assert.Equal(t, int64(2), dm.AllocatePage())
	})

	t.Run("pages get consecutive file offsets on first touch", func(t *testing.T) {
		dm := newTestManager(t)

		offset1, err := dm.offsetFor(7)
		require.NoError(t, err)
		offset2, err := dm.offsetFor(3)
		require.NoError(t, err)

		assert.Equal(t, int64(0), offset1)
		assert.Equal(t, int64(PAGE_SIZE), offset2)
	})

	t.Run("write then read roundtrips a page", func(t *testing.T) {
		dm := newTestManager(t)

		data := make([]byte, PAGE_SIZE)
		copy(data, []byte("hello world"))

		require.NoError(t, dm.WritePage(1, data))

		res, err := dm.ReadPage(1)
		require.NoError(t, err)
		assert.Equal(t, data, res)
	})

	t.Run("a never-written page reads back zeroed", func(t *testing.T) {
		dm := newTestManager(t)

		res, err := dm.ReadPage(5)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, PAGE_SIZE), res)
	})

	t.Run("deallocate releases the file slot for reuse", func(t *testing.T) {
		dm := newTestManager(t)

		data := make([]byte, PAGE_SIZE)
		require.NoError(t, dm.WritePage(1, data))
		assert.Empty(t, dm.freeSlots)

		dm.DeallocatePage(1)
		assert.Len(t, dm.freeSlots, 1)

		offset, err := dm.offsetFor(9)
		require.NoError(t, err)
		assert.Equal(t, int64(0), offset)
		assert.Empty(t, dm.freeSlots)
	})

	t.Run("deallocate of an unknown page is a no-op", func(t *testing.T) {
		dm := newTestManager(t)

		dm.DeallocatePage(99)
		assert.Empty(t, dm.freeSlots)
	})

	t.Run("db file grows when capacity is used up", func(t *testing.T) {
		dm := newTestManager(t)
		dm.pageCapacity = 1

		data := make([]byte, PAGE_SIZE)
		require.NoError(t, dm.WritePage(0, data))
		require.NoError(t, dm.WritePage(1, data))

		assert.Equal(t, 2, dm.pageCapacity)

		fileInfo, err := os.Stat(dm.dbFile.Name())
		require.NoError(t, err)
		assert.Equal(t, int64(2*PAGE_SIZE), fileInfo.Size())
	})
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	dm, err := NewManager(CreateDbFile(t))
	require.NoError(t, err)
	return dm
}

func CreateDbFile(t *testing.T) *os.File {
	t.Helper()

	dbFile := path.Join(t.TempDir(), "test.db")
	file, err := os.OpenFile(dbFile, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = file.Close()
	})

	require.NoError(t, os.Truncate(dbFile, PAGE_SIZE))
	return file
}
