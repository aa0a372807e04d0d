package hook

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/customgpt/quadverify/internal/audit"
	"github.com/customgpt/quadverify/internal/inference"
	"github.com/customgpt/quadverify/internal/logger"
	"github.com/customgpt/quadverify/internal/review"
	"github.com/customgpt/quadverify/internal/session"
)

// maxTranscriptLineBytes bounds one transcript line; longer assistant
// turns are truncated by the inference prompt anyway.
const maxTranscriptLineBytes = 4 << 20

// stopHook composes the self-review prompt for the agent's final turn:
// the standing checklist, any unsourced claims still sitting in research
// documents written this session, and, when enabled, a second opinion
// from the inference verifier.
func stopHook(e *env) Result {
	if e.event.StopHookActive {
		logger.Debug("stop hook already active, no prompt")
		return Result{Decision: DecisionApprove}
	}

	st := session.Load(e.stateDir, e.sessionID)

	var findings review.Findings
	if e.cfg.Cycle4.Enabled {
		findings.Research = review.ScanResearchFiles(writtenPaths(st))
	}

	if e.cfg.Cycle5.Enabled {
		request, response := lastExchange(e.event.TranscriptPath)
		a := inference.Verify(context.Background(), e.cfg.Cycle5, request, response)
		if !a.Skipped && !a.Pass {
			findings.SecondOpinion = fmt.Sprintf(
				"An independent verification pass flagged this response: %s\nAddress the gap before finishing.", a.Reasoning)
		}
		logger.Debug("inference verification", "pass", a.Pass, "skipped", a.Skipped)
	}

	prompt := review.Compose(findings)
	session.Charge(st, session.SourceStopPrompt, session.EstimateTokens(prompt))
	if err := st.Save(e.stateDir); err != nil {
		logger.Debug("session state save failed", "error", err)
	}

	metadata := map[string]any{"promptChars": len(prompt)}
	if n := len(findings.Research); n > 0 {
		metadata["researchFindings"] = n
	}
	audit.Log(audit.Entry{
		SessionID:  e.sessionID,
		Event:      PointStop,
		Decision:   audit.DecisionLogOnly,
		DurationMs: e.elapsedMs(),
		Metadata:   metadata,
	})

	return Result{Decision: DecisionApprove, Output: FormatPrompt(prompt)}
}

// writtenPaths returns the files written this session in stable order.
func writtenPaths(st *session.State) []string {
	paths := make([]string, 0, len(st.FilesWritten))
	for p := range st.FilesWritten {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// transcriptLine is the subset of a transcript record the verifier
// reads: who spoke and what text they produced.
type transcriptLine struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// lastExchange pulls the final user request and assistant response out
// of the host transcript. Any read or parse trouble returns empty
// strings, which the verifier treats as nothing to verify.
func lastExchange(path string) (request, response string) {
	if path == "" {
		return "", ""
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("transcript unreadable", "error", err)
		return "", ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxTranscriptLineBytes)
	for scanner.Scan() {
		var line transcriptLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		text := contentText(line.Message.Content)
		if text == "" {
			continue
		}
		switch line.Message.Role {
		case "user":
			request = text
		case "assistant":
			response = text
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Debug("transcript scan failed", "error", err)
	}
	return request, response
}

// contentText flattens a transcript message content field, which is
// either a plain string or a list of typed blocks.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var out string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			if out != "" {
				out += "\n"
			}
			out += b.Text
		}
	}
	return out
}
