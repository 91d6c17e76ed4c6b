// Package testutil provides golden file helpers for tests.
package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden rewrites golden files instead of comparing.
// Use: go test ./... -run TestGolden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// GoldenPath returns testdata/<name>.golden relative to the package under
// test.
func GoldenPath(name string) string {
	return filepath.Join("testdata", name+".golden")
}

// CompareGolden compares got with the named golden file and fails with a
// line diff on mismatch. With -update the file is written instead.
// Line endings are compared exactly.
func CompareGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := GoldenPath(name)
	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create testdata directory: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%q\n\nRun with -update to create:\n  go test ./... -run %s -update",
				path, got, t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(got, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, lineDiff(string(expected), string(got), path), t.Name())
	}
}

// lineDiff lists differing lines, quoted so CR and trailing spaces show.
func lineDiff(expected, got, path string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)

	expectedLines := strings.SplitAfter(expected, "\n")
	gotLines := strings.SplitAfter(got, "\n")
	n := len(expectedLines)
	if len(gotLines) > n {
		n = len(gotLines)
	}
	for i := 0; i < n; i++ {
		var e, g string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if e == g {
			continue
		}
		fmt.Fprintf(&buf, "@@ line %d @@\n", i+1)
		if e != "" {
			fmt.Fprintf(&buf, "-%q\n", e)
		}
		if g != "" {
			fmt.Fprintf(&buf, "+%q\n", g)
		}
	}
	return buf.String()
}
