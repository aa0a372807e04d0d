package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := New("sess-1")
	Record(st, Entry{TS: time.Now(), Tool: "Read", FilePath: "a.go"}, "")
	Record(st, Entry{TS: time.Now(), Tool: "Write", FilePath: "b.go"}, "content")
	Charge(st, SourceBlockMessage, 42)

	if err := st.Save(dir); err != nil {
		t.Fatal(err)
	}

	loaded := Load(dir, "sess-1")
	if len(loaded.History) != 2 {
		t.Errorf("history length = %d, want 2", len(loaded.History))
	}
	if !loaded.FilesRead["a.go"] || !loaded.FilesWritten["b.go"] {
		t.Error("read/write sets lost in round trip")
	}
	if loaded.Budget.Total != 42 {
		t.Errorf("budget total = %d, want 42", loaded.Budget.Total)
	}
}

func TestLoadMissingFile(t *testing.T) {
	st := Load(t.TempDir(), "nope")
	if st == nil || st.SessionID != "nope" {
		t.Fatal("missing file should yield a fresh state")
	}
	if st.FilesRead == nil || st.Correction == nil {
		t.Error("fresh state must have maps initialized")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir, "bad"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	st := Load(dir, "bad")
	if st == nil || len(st.History) != 0 {
		t.Error("corrupt file should yield a fresh state")
	}
}

func TestLoadBackfillsMaps(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir, "min"), []byte(`{"sessionId":"min"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	st := Load(dir, "min")
	// Must not panic on use.
	st.FilesRead["x"] = true
	Charge(st, SourceStopPrompt, 1)
	NoteViolations(st, []string{"no-eval"})
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st := New("sess-2")
	for i := 0; i < 5; i++ {
		if err := st.Save(dir); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "sess-2.behavior.json")); err != nil {
		t.Errorf("state file missing: %v", err)
	}
}
