package buffer

// Diagnostic accessors. These take the structural lock in shared mode and
// exist for tests and tooling, not for the steady-state contract.

func (b *PoolManager) PoolSize() int {
	return len(b.frames)
}

func (b *PoolManager) PageTableSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pageTable)
}

// InBuffer reports whether the page is currently resident.
func (b *PoolManager) InBuffer(pageId int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.pageTable[pageId]
	return ok
}

// PinCount returns the page's pin count, or false if it is not resident.
func (b *PoolManager) PinCount(pageId int64) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	frameId, ok := b.pageTable[pageId]
	if !ok {
		return 0, false
	}
	return b.frames[frameId].PinCount(), true
}

// ReplacerSize is the number of evictable frames.
func (b *PoolManager) ReplacerSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.replacer.Size()
}

func (b *PoolManager) FreeListSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.freeList)
}
