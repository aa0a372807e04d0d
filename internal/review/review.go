// Package review composes the self-review prompt returned at session
// stop and re-checks research documents written during the session.
package review

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/customgpt/quadverify/internal/rules"
)

// maxScanBytes caps how much of a research file is re-read at stop.
const maxScanBytes = 256 * 1024

const checklist = `Before finishing, review your work against four dimensions:

COMPLETENESS: every requested change is implemented. No stubs, placeholders, or deferred work remain.
CORRECTNESS: the changes do what was asked. Edge cases and error paths are handled, not assumed.
SECURITY: no secrets in code, no unsafe patterns introduced, no weakened checks.
VERIFICATION: every claim of done is backed by something you actually ran or observed.

Do not describe what you would do. Do it.`

// FileFinding is the re-scan result for one research document.
type FileFinding struct {
	Path       string
	Violations []rules.Violation
}

// Findings carries everything the stop prompt reports beyond the
// checklist itself.
type Findings struct {
	Research      []FileFinding
	SecondOpinion string
}

// Compose renders the stop prompt: the checklist plus any outstanding
// findings.
func Compose(f Findings) string {
	var b strings.Builder
	b.WriteString(checklist)

	if len(f.Research) > 0 {
		b.WriteString("\n\nResearch documents from this session still have unsourced claims:\n")
		for _, ff := range f.Research {
			fmt.Fprintf(&b, "\n%s:\n", ff.Path)
			for _, v := range ff.Violations {
				fmt.Fprintf(&b, "- [Cycle %d - %s] %s\n", v.Cycle, v.RuleID, v.Message)
			}
		}
		b.WriteString("\nAddress these before finishing.")
	}

	if f.SecondOpinion != "" {
		b.WriteString("\n\n" + f.SecondOpinion)
	}

	return b.String()
}

// ScanResearchFiles re-reads research documents and re-evaluates the
// research catalog against their current contents, so the stop prompt
// reflects the files as they exist now, not as they were written.
// Unreadable files are skipped.
func ScanResearchFiles(paths []string) []FileFinding {
	var findings []FileFinding
	for _, path := range paths {
		if !rules.IsResearchPath(path) {
			continue
		}
		content, err := readCapped(path, maxScanBytes)
		if err != nil {
			continue
		}
		vs := rules.Evaluate(rules.Research(), rules.Request{
			Content: content,
			Ext:     strings.ToLower(filepath.Ext(path)),
			Context: rules.ContextFileWrite,
			Path:    path,
		})
		if len(vs) > 0 {
			findings = append(findings, FileFinding{Path: path, Violations: vs})
		}
	}
	return findings
}

func readCapped(path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
