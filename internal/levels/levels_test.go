package levels

import "testing"

func TestForXP(t *testing.T) {
	cases := []struct {
		xp    int64
		level int
		title string
	}{
		{0, 1, "Newcomer I"},
		{1, 2, "Newcomer II"},
		{3, 2, "Newcomer II"},
		{4, 3, "Newcomer III"},
		{25, 6, "Curious I"},
		{998001, 1000, "Omega V"},
		{1000000, 1001, "Transcendent I"},
		{1010025, 1006, "Transcendent I"},
	}
	for _, tc := range cases {
		level, title := ForXP(tc.xp)
		if level != tc.level || title != tc.title {
			t.Fatalf("xp %d want (%d, %q) got (%d, %q)", tc.xp, tc.level, tc.title, level, title)
		}
	}
}

func TestXPForLevelBoundaries(t *testing.T) {
	for level := 1; level <= 2000; level++ {
		atThreshold, _ := ForXP(XPForLevel(level))
		if atThreshold != level {
			t.Fatalf("threshold xp for level %d resolved to %d", level, atThreshold)
		}
		if level > 1 {
			below, _ := ForXP(XPForLevel(level) - 1)
			if below != level-1 {
				t.Fatalf("xp below level %d threshold resolved to %d", level, below)
			}
		}
	}
}

func TestForXPProgress(t *testing.T) {
	p := ForXPProgress(6)
	if p.Level != 3 || p.XPInLevel != 2 || p.XPForNext != 5 {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if p.Ratio != 0.4 {
		t.Fatalf("ratio want 0.4 got %v", p.Ratio)
	}
}
