// Package sensitive recognizes access to credential stores and other
// high-value paths. Matches never block on their own; they escalate
// routing and leave an audit trail.
package sensitive

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/customgpt/quadverify/internal/shellparse"
)

// Pattern is one recognized sensitive target.
type Pattern struct {
	ID          string
	Description string
	re          *regexp.Regexp
}

var catalog = []Pattern{
	{"etc-passwd", "system account database", regexp.MustCompile(`/etc/passwd\b`)},
	{"etc-shadow", "system password hashes", regexp.MustCompile(`/etc/shadow\b`)},
	{"ssh-private-key", "SSH private key", regexp.MustCompile(`\.ssh/id_[A-Za-z0-9_]+`)},
	{"ssh-authorized-keys", "SSH authorized keys", regexp.MustCompile(`\.ssh/authorized_keys\b`)},
	{"shell-history", "shell history file", regexp.MustCompile(`\.(?:bash|zsh|sh)_history\b`)},
	{"env-file", "dotenv secrets file", regexp.MustCompile(`(?:^|[\s"'=:;|&(/])\.env\b`)},
	{"aws-credentials", "AWS credentials", regexp.MustCompile(`\.aws/(?:credentials|config)\b`)},
	{"kube-config", "Kubernetes credentials", regexp.MustCompile(`\.kube/config\b`)},
	{"docker-config", "Docker registry auth", regexp.MustCompile(`\.docker/config\.json\b`)},
	{"gnupg-keyring", "GnuPG keyring", regexp.MustCompile(`\.gnupg/`)},
	{"npmrc", "npm auth token file", regexp.MustCompile(`\.npmrc\b`)},
	{"git-credentials", "stored git credentials", regexp.MustCompile(`\.git-credentials\b`)},
	{"netrc", "netrc credentials", regexp.MustCompile(`\.netrc\b`)},
	{"browser-credentials", "browser credential store", regexp.MustCompile(`(?i)\b(?:cookies\.sqlite|key4\.db|logins\.json|signons\.sqlite)\b|Login Data`)},
	{"windows-secrets", "Windows registry hives", regexp.MustCompile(`(?i)system32[/\\]config[/\\](?:sam|system|security)\b`)},
	{"proc-environ", "process environment dump", regexp.MustCompile(`/proc/(?:\d+|self)/environ\b`)},
	{"macos-keychain", "macOS keychain", regexp.MustCompile(`(?i)\b(?:login|system)\.keychain(?:-db)?\b|\bsecurity\s+(?:find-generic-password|find-internet-password|dump-keychain)\b`)},
	{"key-material", "key material file", regexp.MustCompile(`(?i)\.(?:pem|p12|pfx)\b`)},
}

// Scan returns every catalog entry that matches s.
func Scan(s string) []Pattern {
	if s == "" {
		return nil
	}
	var hits []Pattern
	for _, p := range catalog {
		if p.re.MatchString(s) {
			hits = append(hits, p)
		}
	}
	return hits
}

// MatchesAny reports whether s touches any sensitive target.
func MatchesAny(s string) bool {
	if s == "" {
		return false
	}
	for _, p := range catalog {
		if p.re.MatchString(s) {
			return true
		}
	}
	return false
}

// ScanCommand scans a shell command segment by segment so pipelines
// report per-stage hits. Unparseable commands are scanned whole.
func ScanCommand(cmd string) []Pattern {
	segments, err := shellparse.Segments(cmd)
	if err != nil || len(segments) == 0 {
		return Scan(cmd)
	}
	seen := make(map[string]bool)
	var hits []Pattern
	for _, seg := range segments {
		for _, p := range Scan(seg) {
			if !seen[p.ID] {
				seen[p.ID] = true
				hits = append(hits, p)
			}
		}
	}
	return hits
}

// Unavailable is the snapshot placeholder when ps cannot run.
const Unavailable = "process snapshot unavailable"

// CaptureSnapshot summarizes the running processes as the top ten
// command names by count. It is recorded alongside sensitive-path
// access so later review can see what else was running.
func CaptureSnapshot(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ps", "-Ao", "comm=").Output()
	if err != nil {
		return Unavailable
	}

	counts := make(map[string]int)
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		counts[filepath.Base(name)]++
	}
	if len(counts) == 0 {
		return Unavailable
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > 10 {
		names = names[:10]
	}

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " x" + strconv.Itoa(counts[name])
	}
	return strings.Join(parts, ", ")
}
