package converter

// barEntry records where a bar starts and the meter in force from there on
type barEntry struct {
	bar  int
	num  int
	den  int
	tick int64
}

// barTable maps bar numbers to absolute ticks. Entries are only ever appended.
type barTable struct {
	entries []barEntry
}

func (b *barTable) reset() {
	b.entries = b.entries[:0]
}

// lookup returns the tick of a bar that has already been resolved
func (b *barTable) lookup(bar int) (int64, bool) {
	for _, e := range b.entries {
		if e.bar == bar {
			return e.tick, true
		}
	}
	return 0, false
}

// resolve returns the tick of bar, appending an entry for it if needed.
// A new bar starts after the previous entry's bars at the previous meter.
func (b *barTable) resolve(bar, num, den, division int) int64 {
	if tick, ok := b.lookup(bar); ok {
		return tick
	}
	var tick int64
	if n := len(b.entries); n > 0 {
		prev := b.entries[n-1]
		gap := bar - prev.bar
		if gap < 1 {
			gap = 1
		}
		tick = prev.tick + barLength(prev.num, prev.den, division)*int64(gap)
	}
	b.entries = append(b.entries, barEntry{bar: bar, num: num, den: den, tick: tick})
	return tick
}

func barLength(num, den, division int) int64 {
	if den <= 0 {
		den = 4
	}
	return int64(num * 4 * division / den)
}
