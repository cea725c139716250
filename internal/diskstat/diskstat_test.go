package diskstat

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWarningLevel(t *testing.T) {
	th := Thresholds{YellowPct: 15, RedPct: 5, BlockPct: 2}
	cases := []struct {
		free uint64
		want int
	}{
		{50, WarnNone},
		{15, WarnYellow},
		{4, WarnRed},
		{1, WarnBlock},
	}
	for _, tc := range cases {
		s := Stats{TotalBytes: 100, FreeBytes: tc.free}
		if got := s.WarningLevel(th); got != tc.want {
			t.Errorf("free %d%%: level = %d, want %d", tc.free, got, tc.want)
		}
	}
	if (Stats{}).PctFree() != 100 {
		t.Error("unknown total should read as all free")
	}
}

func TestLevelName(t *testing.T) {
	if LevelName(WarnBlock) != "block" || LevelName(42) != "none" {
		t.Errorf("LevelName = %q, %q", LevelName(WarnBlock), LevelName(42))
	}
}

func TestRefreshSplitsUsage(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string, n int) {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, make([]byte, n), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("db/acocameras.db", 100)
	write("blobs/layouts/public/a.png", 30)
	write("other.txt", 5)

	c := New(dir, time.Hour)
	c.Refresh()
	s := c.Get()
	if s.DatabaseBytes != 100 || s.ImageBytes != 30 || s.AppBytes != 135 {
		t.Errorf("stats = %+v", s)
	}
	if s.TotalBytes == 0 || s.CapturedAt.IsZero() {
		t.Errorf("volume not measured: %+v", s)
	}
	c.Stop()
	c.Stop()
}
