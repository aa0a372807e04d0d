package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/customgpt/quadverify/internal/constants"
	"github.com/customgpt/quadverify/internal/project"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
)

var (
	auditCompressAfter int
	auditDeleteAfter   int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Manage the project audit directory",
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Compress old audit and session files, delete ancient ones",
	Long: `Prune ages out the per-session files under .claude/quadruple-verify-audit:
files older than --compress-after days are gzipped in place, and files older
than --delete-after days are removed.

Audit logs are append-only and never rewritten; prune only compresses or
deletes whole files that no live session touches anymore.`,
	RunE: runAuditPrune,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditPruneCmd)
	auditPruneCmd.Flags().IntVar(&auditCompressAfter, "compress-after", 7, "Compress files older than this many days")
	auditPruneCmd.Flags().IntVar(&auditDeleteAfter, "delete-after", 90, "Delete files older than this many days")
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	dir := project.AuditDir(project.Root(cwd))

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		fmt.Println("No audit directory; nothing to prune.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read audit directory: %w", err)
	}

	now := time.Now()
	compressCutoff := now.AddDate(0, 0, -auditCompressAfter)
	deleteCutoff := now.AddDate(0, 0, -auditDeleteAfter)
	compressed, deleted := 0, 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".jsonl") && !strings.HasSuffix(name, ".behavior.json") && !strings.HasSuffix(name, ".gz") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, name)

		if info.ModTime().Before(deleteCutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
			continue
		}
		if strings.HasSuffix(name, ".gz") || !info.ModTime().Before(compressCutoff) {
			continue
		}
		if err := gzipFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "failed to compress %s: %v\n", name, err)
			continue
		}
		compressed++
	}

	fmt.Printf("Pruned %s: %d compressed, %d deleted\n", dir, compressed, deleted)
	return nil
}

// gzipFile replaces path with path.gz, preserving the modification time
// so later prune runs age the compressed copy correctly.
func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	dst, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return err
	}

	gw := gzip.NewWriter(dst)
	if _, err := io.Copy(gw, src); err != nil {
		gw.Close()
		dst.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := gw.Close(); err != nil {
		dst.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path + ".gz")
		return err
	}

	os.Chtimes(path+".gz", info.ModTime(), info.ModTime())
	return os.Remove(path)
}
