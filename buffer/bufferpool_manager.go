package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/njenga/hifadhi/logger"
	"github.com/njenga/hifadhi/recovery"
	"github.com/njenga/hifadhi/storage/disk"
	"github.com/njenga/hifadhi/util"
)

// PoolManager is the single owner of the frame array, page table, free list
// and replacer. One readers-writer lock guards all structural state: every
// operation that pins, unpins, loads, flushes or deletes a page holds it
// exclusively for its full duration, disk I/O included. Introspection
// accessors take it shared.
type PoolManager struct {
	mu         sync.RWMutex
	frames     []*Page
	pageTable  map[int64]int
	freeList   []int
	replacer   *ClockReplacer
	scheduler  *disk.Scheduler
	logManager *recovery.LogManager

	hitCount      atomic.Uint64
	missCount     atomic.Uint64
	evictionCount atomic.Uint64
	flushCount    atomic.Uint64
}

// NewPoolManager builds a pool with size frames. logManager may be nil,
// which disables the write-ahead ordering hook.
func NewPoolManager(size int, replacer *ClockReplacer, scheduler *disk.Scheduler, logManager *recovery.LogManager) *PoolManager {
	frames := make([]*Page, size)
	freeList := make([]int, size)

	for i := 0; i < size; i++ {
		frames[i] = newPage(i)
		freeList[i] = i
	}

	return &PoolManager{
		frames:     frames,
		pageTable:  make(map[int64]int),
		freeList:   freeList,
		replacer:   replacer,
		scheduler:  scheduler,
		logManager: logManager,
	}
}

// FetchPage returns the page pinned, loading it from disk on a miss. A
// util.ErrPoolExhausted result means every frame is pinned; the caller
// should release pages and retry rather than treat it as fatal.
func (b *PoolManager) FetchPage(pageId int64) (*Page, error) {
	if pageId == disk.INVALID_PAGE_ID {
		return nil, util.ErrPageNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if frameId, ok := b.pageTable[pageId]; ok {
		page := b.frames[frameId]
		page.pin()
		b.replacer.Track(frameId)
		b.replacer.SetEvictable(frameId, false)
		b.hitCount.Add(1)
		return page, nil
	}

	frameId, err := b.evict()
	if err != nil {
		return nil, err
	}

	page := b.frames[frameId]
	page.reset()

	data, err := b.readSync(pageId)
	if err != nil {
		b.freeList = append(b.freeList, frameId)
		return nil, err
	}
	copy(page.data, data)

	page.pageId = pageId
	page.pin()
	b.pageTable[pageId] = frameId
	b.replacer.Track(frameId)
	b.replacer.SetEvictable(frameId, false)
	b.missCount.Add(1)

	return page, nil
}

// NewPage allocates a fresh page id and returns it pinned on a zeroed frame.
// The frame is secured before the id is allocated, so a failed call never
// leaks an id into the page table.
func (b *PoolManager) NewPage() (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameId, err := b.evict()
	if err != nil {
		return nil, err
	}

	pageId := b.scheduler.AllocatePage()

	page := b.frames[frameId]
	page.reset()
	page.pageId = pageId
	page.pin()
	b.pageTable[pageId] = frameId
	b.replacer.Track(frameId)
	b.replacer.SetEvictable(frameId, false)

	return page, nil
}

// UnpinPage releases one pin. It reports false if the page is not resident
// or its pin count is already zero; a double unpin is rejected, not
// silently absorbed. dirty is ORed into the frame's dirty flag, never
// cleared here.
func (b *PoolManager) UnpinPage(pageId int64, dirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameId, ok := b.pageTable[pageId]
	if !ok {
		return false
	}

	page := b.frames[frameId]
	if page.PinCount() == 0 {
		return false
	}

	if dirty {
		page.markDirty()
	}

	if page.unpin() == 0 {
		b.replacer.SetEvictable(frameId, true)
	} else {
		b.replacer.SetEvictable(frameId, false)
	}

	return true
}

// FlushPage writes the page to disk and clears its dirty flag, leaving the
// pin count untouched. It reports false if the page is not resident. An I/O
// fault is returned as an error and must not be masked.
func (b *PoolManager) FlushPage(pageId int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameId, ok := b.pageTable[pageId]
	if !ok {
		return false, nil
	}

	if err := b.flushFrame(b.frames[frameId]); err != nil {
		return false, err
	}

	return true, nil
}

// FlushAllPages writes every resident page to disk, dirty or not.
func (b *PoolManager) FlushAllPages() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, frameId := range b.pageTable {
		if err := b.flushFrame(b.frames[frameId]); err != nil {
			return err
		}
	}

	return nil
}

// DeletePage removes the page from the pool and deallocates its id. Deleting
// a page that is not resident succeeds trivially; deleting a pinned page
// fails.
func (b *PoolManager) DeletePage(pageId int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameId, ok := b.pageTable[pageId]
	if !ok {
		return true
	}

	page := b.frames[frameId]
	if page.PinCount() > 0 {
		return false
	}

	delete(b.pageTable, pageId)
	b.replacer.Remove(frameId)
	page.reset()
	b.freeList = append(b.freeList, frameId)
	b.scheduler.DeallocatePage(pageId)

	return true
}

// evict secures a frame for reuse: free list first, else a replacer victim.
// A dirty victim is written back (behind the log manager's durability hook)
// before its frame is handed out. Runs with the structural lock held
// exclusively, which keeps victim selection atomic with respect to all
// other page table mutations.
func (b *PoolManager) evict() (int, error) {
	if len(b.freeList) > 0 {
		frameId := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameId, nil
	}

	frameId, ok := b.replacer.Victim()
	if !ok {
		return INVALID_FRAME_ID, util.ErrPoolExhausted
	}

	victim := b.frames[frameId]
	if victim.IsDirty() {
		if err := b.flushFrame(victim); err != nil {
			b.replacer.Track(frameId)
			b.replacer.SetEvictable(frameId, true)
			return INVALID_FRAME_ID, err
		}
	}

	logger.Debugf("evicting page %d from frame %d", victim.pageId, frameId)
	delete(b.pageTable, victim.pageId)
	b.evictionCount.Add(1)

	return frameId, nil
}

// flushFrame writes the frame's bytes to disk and clears the dirty flag.
// When a log manager is attached, log records up through the page's LSN are
// made durable first.
func (b *PoolManager) flushFrame(page *Page) error {
	if b.logManager != nil && page.lsn != recovery.INVALID_LSN {
		if err := b.logManager.FlushTo(page.lsn); err != nil {
			return err
		}
	}

	if err := b.writeSync(page.pageId, page.data); err != nil {
		return err
	}

	page.clearDirty()
	b.flushCount.Add(1)
	return nil
}

func (b *PoolManager) readSync(pageId int64) ([]byte, error) {
	resp := <-b.scheduler.Schedule(disk.NewReadRequest(pageId))
	if resp.Err != nil {
		return nil, errors.Wrapf(resp.Err, "loading page %d", pageId)
	}
	return resp.Data, nil
}

func (b *PoolManager) writeSync(pageId int64, data []byte) error {
	resp := <-b.scheduler.Schedule(disk.NewWriteRequest(pageId, data))
	if resp.Err != nil {
		return errors.Wrapf(resp.Err, "writing back page %d", pageId)
	}
	return nil
}
