package buffer

import "github.com/njenga/hifadhi/recovery"

// Page guards pair a fetch with its matching unpin. Drop releases the pin
// exactly once; a WriteGuard unpins with the dirty flag set.

type pageGuard struct {
	page    *Page
	pool    *PoolManager
	dropped bool
}

type ReadGuard struct {
	pageGuard
}

type WriteGuard struct {
	pageGuard
}

// ReadPage fetches the page and wraps it in a guard for read access.
func (b *PoolManager) ReadPage(pageId int64) (*ReadGuard, error) {
	page, err := b.FetchPage(pageId)
	if err != nil {
		return nil, err
	}
	return &ReadGuard{pageGuard{page: page, pool: b}}, nil
}

// WritePage fetches the page for mutation; dropping the guard marks the
// frame dirty.
func (b *PoolManager) WritePage(pageId int64) (*WriteGuard, error) {
	page, err := b.FetchPage(pageId)
	if err != nil {
		return nil, err
	}
	return &WriteGuard{pageGuard{page: page, pool: b}}, nil
}

func (pg *ReadGuard) Data() []byte {
	return pg.page.Data()
}

func (pg *ReadGuard) Drop() {
	if pg == nil {
		return
	}
	pg.drop(false)
}

func (pg *WriteGuard) Data() []byte {
	return pg.page.Data()
}

func (pg *WriteGuard) SetLSN(lsn recovery.LSN) {
	pg.page.SetLSN(lsn)
}

func (pg *WriteGuard) Drop() {
	if pg == nil {
		return
	}
	pg.drop(true)
}

func (pg *pageGuard) ID() int64 {
	return pg.page.ID()
}

func (pg *pageGuard) drop(dirty bool) {
	if pg == nil || pg.dropped {
		return
	}

	pg.dropped = true
	pg.pool.UnpinPage(pg.page.ID(), dirty)
}
