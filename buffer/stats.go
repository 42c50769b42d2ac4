package buffer

// Stats is a point-in-time snapshot of the pool's counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Flushes   uint64
}

// HitRatio is the fraction of fetches served without touching disk.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (b *PoolManager) Stats() Stats {
	return Stats{
		Hits:      b.hitCount.Load(),
		Misses:    b.missCount.Load(),
		Evictions: b.evictionCount.Load(),
		Flushes:   b.flushCount.Load(),
	}
}
