package converter

import "testing"

func TestBarTable(t *testing.T) {
	var b barTable

	steps := []struct {
		bar, num, den int
		want          int64
	}{
		{0, 4, 4, 0},
		{1, 3, 4, 480},
		{2, 4, 4, 840},
		{1, 7, 8, 480},
		{5, 4, 4, 2280},
		{3, 4, 4, 2760},
	}

	for _, s := range steps {
		if got := b.resolve(s.bar, s.num, s.den, 120); got != s.want {
			t.Errorf("resolve(%d, %d, %d) = %d, want %d", s.bar, s.num, s.den, got, s.want)
		}
	}

	if tick, ok := b.lookup(2); !ok || tick != 840 {
		t.Errorf("lookup(2) = %d, %v, want 840, true", tick, ok)
	}
	if _, ok := b.lookup(9); ok {
		t.Error("lookup(9) found an unresolved bar")
	}

	b.reset()
	if got := b.resolve(7, 4, 4, 120); got != 0 {
		t.Errorf("resolve on an empty table = %d, want 0", got)
	}
}
