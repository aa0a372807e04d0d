package audit

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/customgpt/quadverify/internal/rules"
)

func TestLogAppendsOneLinePerEntry(t *testing.T) {
	defer Reset()
	dir := t.TempDir()

	if err := Init(dir, "sess-1", false); err != nil {
		t.Fatal(err)
	}

	entries := []Entry{
		{SessionID: "sess-1", Event: "pre-tool", Tool: "Write", Decision: DecisionApprove},
		{SessionID: "sess-1", Event: "pre-tool", Tool: "Bash", Decision: DecisionBlock,
			Violations: []rules.Violation{{RuleID: "no-curl-pipe-sh", Cycle: 2, Severity: rules.SeverityCritical}}},
		{SessionID: "sess-1", Event: "post-tool", Tool: "Read", Decision: DecisionLogOnly,
			Metadata: map[string]any{"sensitiveAccess": []string{"etc-passwd"}}},
	}
	for _, e := range entries {
		if err := Log(e); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(Path(dir, "sess-1"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != len(entries) {
		t.Fatalf("line count = %d, want %d", len(lines), len(entries))
	}
	for i, line := range lines {
		var decoded Entry
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if decoded.Timestamp == "" {
			t.Errorf("line %d missing timestamp", i)
		}
		if decoded.Decision != entries[i].Decision {
			t.Errorf("line %d decision = %q, want %q", i, decoded.Decision, entries[i].Decision)
		}
	}
}

func TestLogAppendsAcrossInits(t *testing.T) {
	defer Reset()
	dir := t.TempDir()

	Init(dir, "sess-1", false)
	Log(Entry{SessionID: "sess-1", Event: "pre-tool", Decision: DecisionApprove})
	Close()

	// A later hook process for the same session appends.
	Init(dir, "sess-1", false)
	Log(Entry{SessionID: "sess-1", Event: "post-tool", Decision: DecisionLogOnly})
	Close()

	data, err := os.ReadFile(Path(dir, "sess-1"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("expected 2 lines after two inits, got %d", n)
	}
}

func TestPerSessionFiles(t *testing.T) {
	defer Reset()
	dir := t.TempDir()

	Init(dir, "sess-a", false)
	Log(Entry{SessionID: "sess-a", Decision: DecisionApprove})
	Init(dir, "sess-b", false)
	Log(Entry{SessionID: "sess-b", Decision: DecisionApprove})

	for _, sess := range []string{"sess-a", "sess-b"} {
		if _, err := os.Stat(Path(dir, sess)); err != nil {
			t.Errorf("audit file for %s missing: %v", sess, err)
		}
	}
}

func TestDisabledLoggingIsNoOp(t *testing.T) {
	defer Reset()
	dir := t.TempDir()

	if err := Init(dir, "sess-1", true); err != nil {
		t.Fatal(err)
	}
	if IsEnabled() {
		t.Error("disabled init should leave logging off")
	}
	if err := Log(Entry{SessionID: "sess-1", Decision: DecisionApprove}); err != nil {
		t.Errorf("disabled Log must be a silent no-op, got %v", err)
	}
	if _, err := os.Stat(Path(dir, "sess-1")); !os.IsNotExist(err) {
		t.Error("disabled logging must not create a file")
	}
}

func TestLogBeforeInitIsNoOp(t *testing.T) {
	defer Reset()
	if err := Log(Entry{Decision: DecisionApprove}); err != nil {
		t.Errorf("Log before Init should no-op, got %v", err)
	}
}

func TestInitUnwritableDirDegrades(t *testing.T) {
	defer Reset()
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind for root")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0o555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(parent, 0o755)

	if err := Init(parent+"/sub", "sess-1", false); err == nil {
		t.Error("expected an error from unwritable audit directory")
	}
	// Later logging still must not fail the hook.
	if err := Log(Entry{Decision: DecisionApprove}); err != nil {
		t.Errorf("Log after failed Init should no-op, got %v", err)
	}
}
