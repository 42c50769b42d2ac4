package buffer

import (
	"sync/atomic"

	"github.com/njenga/hifadhi/recovery"
	"github.com/njenga/hifadhi/storage/disk"
)

// Page is a frame in the buffer pool: a fixed-size page image plus the
// metadata the pool needs to manage residency. Callers receive a *Page from
// FetchPage/NewPage, mutate Data() directly, and must UnpinPage exactly once
// per successful fetch.
//
// The dirty flag is sticky: markDirty sets it, and only a successful flush
// clears it. UnpinPage(.., false) never clears it.
type Page struct {
	frameId int
	pageId  int64
	data    []byte
	pins    atomic.Int32
	dirty   bool
	lsn     recovery.LSN
}

func newPage(frameId int) *Page {
	return &Page{
		frameId: frameId,
		pageId:  disk.INVALID_PAGE_ID,
		data:    make([]byte, disk.PAGE_SIZE),
	}
}

func (p *Page) ID() int64 {
	return p.pageId
}

func (p *Page) Data() []byte {
	return p.data
}

func (p *Page) PinCount() int {
	return int(p.pins.Load())
}

func (p *Page) IsDirty() bool {
	return p.dirty
}

func (p *Page) LSN() recovery.LSN {
	return p.lsn
}

// SetLSN records the LSN of the caller's latest logged modification. The
// pool flushes the log up to this LSN before writing the page back.
func (p *Page) SetLSN(lsn recovery.LSN) {
	p.lsn = lsn
}

func (p *Page) pin() {
	p.pins.Add(1)
}

func (p *Page) unpin() int32 {
	return p.pins.Add(-1)
}

func (p *Page) markDirty() {
	p.dirty = true
}

func (p *Page) clearDirty() {
	p.dirty = false
}

// reset returns the frame to its empty state: zeroed image, no page bound.
func (p *Page) reset() {
	p.pageId = disk.INVALID_PAGE_ID
	p.dirty = false
	p.lsn = recovery.INVALID_LSN
	p.pins.Store(0)
	clear(p.data)
}
