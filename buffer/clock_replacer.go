package buffer

const INVALID_FRAME_ID = -1

// ClockReplacer selects eviction victims with a second-chance clock sweep.
// Each tracked frame carries a reference bit; the sweep clears set bits and
// picks the first evictable frame found with its bit already clear.
//
// The replacer is not internally synchronized: every method is called while
// the pool holds its structural lock.
type ClockReplacer struct {
	entries   []clockEntry
	hand      int
	evictable int
}

type clockEntry struct {
	tracked    bool
	evictable  bool
	referenced bool
}

func NewClockReplacer(poolSize int) *ClockReplacer {
	return &ClockReplacer{
		entries: make([]clockEntry, poolSize),
	}
}

// Track registers the frame as a replacement candidate and sets its
// reference bit. Re-tracking an already tracked frame only refreshes the
// bit, which is how page hits earn their second chance.
func (c *ClockReplacer) Track(frameId int) {
	e := &c.entries[frameId]
	e.tracked = true
	e.referenced = true
}

func (c *ClockReplacer) SetEvictable(frameId int, evictable bool) {
	e := &c.entries[frameId]
	if !e.tracked || e.evictable == evictable {
		return
	}

	e.evictable = evictable
	if evictable {
		c.evictable++
	} else {
		c.evictable--
	}
}

// Victim sweeps from the clock hand: a referenced frame has its bit cleared
// and is passed over; the first unreferenced evictable frame is selected and
// removed from tracking. Returns false when nothing is evictable.
func (c *ClockReplacer) Victim() (int, bool) {
	if c.evictable == 0 {
		return INVALID_FRAME_ID, false
	}

	// every evictable frame is visited at most twice
	for i := 0; i < 2*len(c.entries); i++ {
		e := &c.entries[c.hand]
		if !e.tracked || !e.evictable {
			c.advance()
			continue
		}

		if e.referenced {
			e.referenced = false
			c.advance()
			continue
		}

		victim := c.hand
		*e = clockEntry{}
		c.evictable--
		c.advance()
		return victim, true
	}

	return INVALID_FRAME_ID, false
}

// Remove drops the frame from tracking entirely, used when its page is
// deleted and the frame goes back on the free list.
func (c *ClockReplacer) Remove(frameId int) {
	e := &c.entries[frameId]
	if e.tracked && e.evictable {
		c.evictable--
	}
	*e = clockEntry{}
}

// Size is the number of currently evictable frames.
func (c *ClockReplacer) Size() int {
	return c.evictable
}

func (c *ClockReplacer) advance() {
	c.hand = (c.hand + 1) % len(c.entries)
}
