package diag_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/zond/wiremesh/diag"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diag.log")

	l := diag.New(path)
	l.Event(diag.EventWireFailed, map[string]any{"wire": "w1", "reason": "boom"})
	l.Event(diag.EventDanglingVariable, map[string]any{"count": 3})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["event"] != diag.EventWireFailed {
		t.Errorf("unexpected first event: %v", lines[0]["event"])
	}
	fields, ok := lines[0]["fields"].(map[string]any)
	if !ok || fields["wire"] != "w1" {
		t.Errorf("unexpected fields: %v", lines[0]["fields"])
	}
}
