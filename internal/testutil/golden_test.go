package testutil

import (
	"strings"
	"testing"
)

func TestLineDiff(t *testing.T) {
	diff := lineDiff("a\r\nb\nc", "a\nb\nd", "x.golden")

	for _, want := range []string{"--- x.golden (expected)", "@@ line 1 @@", `-"a\r\n"`, `+"a\n"`, "@@ line 3 @@", `-"c"`, `+"d"`} {
		if !strings.Contains(diff, want) {
			t.Errorf("expected %q in diff:\n%s", want, diff)
		}
	}
	if strings.Contains(diff, "@@ line 2 @@") {
		t.Errorf("equal lines should not be listed:\n%s", diff)
	}
}

func TestGoldenPath(t *testing.T) {
	if got := GoldenPath("index"); got != "testdata/index.golden" && got != `testdata\index.golden` {
		t.Errorf("GoldenPath = %q", got)
	}
}
