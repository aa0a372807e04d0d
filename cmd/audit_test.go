package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
)

func setupAuditDir(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	auditDir := filepath.Join(root, ".claude", "quadruple-verify-audit")
	if err := os.MkdirAll(auditDir, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)
	return root, auditDir
}

func writeAged(t *testing.T, path string, ageDays int) {
	t.Helper()
	if err := os.WriteFile(path, []byte(`{"event":"pre-tool"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().AddDate(0, 0, -ageDays)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestRunAuditPrune(t *testing.T) {
	resetGlobalState()
	_, auditDir := setupAuditDir(t)

	fresh := filepath.Join(auditDir, "fresh.jsonl")
	stale := filepath.Join(auditDir, "stale.jsonl")
	ancient := filepath.Join(auditDir, "ancient.behavior.json")
	writeAged(t, fresh, 1)
	writeAged(t, stale, 30)
	writeAged(t, ancient, 120)

	auditCompressAfter = 7
	auditDeleteAfter = 90
	output, err := captureStdout(t, func() error {
		return runAuditPrune(&cobra.Command{}, nil)
	})
	if err != nil {
		t.Fatalf("runAuditPrune() error = %v", err)
	}
	if output == "" {
		t.Error("prune printed nothing")
	}

	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file should be untouched")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file should be replaced by its gzip copy")
	}
	if _, err := os.Stat(ancient); !os.IsNotExist(err) {
		t.Error("ancient file should be deleted")
	}

	gz, err := os.Open(stale + ".gz")
	if err != nil {
		t.Fatalf("compressed copy missing: %v", err)
	}
	defer gz.Close()
	gr, err := gzip.NewReader(gz)
	if err != nil {
		t.Fatalf("compressed copy not gzip: %v", err)
	}
	gr.Close()

	info, err := os.Stat(stale + ".gz")
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(info.ModTime()) < 20*24*time.Hour {
		t.Error("compressed copy should keep the original modification time")
	}
}

func TestRunAuditPruneMissingDir(t *testing.T) {
	resetGlobalState()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".claude"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)

	output, err := captureStdout(t, func() error {
		return runAuditPrune(&cobra.Command{}, nil)
	})
	if err != nil {
		t.Fatalf("runAuditPrune() error = %v", err)
	}
	if output == "" {
		t.Error("expected a nothing-to-prune notice")
	}
}
