package hook

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/customgpt/quadverify/internal/logger"
	"github.com/customgpt/quadverify/internal/rules"
)

// Extracted is the analyzable material pulled from one tool input.
type Extracted struct {
	Content   string
	FilePath  string
	Command   string
	URL       string
	Context   rules.Context
	Truncated bool
}

// Extract pulls the fields worth analyzing from a tool's raw input.
// Unmarshal failures yield an empty extraction: content we cannot read
// is content we cannot judge, and the fail-open contract takes over.
// MCP inputs larger than maxMCPBytes are truncated, never rejected.
func Extract(tool string, raw json.RawMessage, maxMCPBytes int) Extracted {
	if len(raw) == 0 {
		return Extracted{Context: rules.ContextAll}
	}

	switch tool {
	case "Write":
		var in struct {
			FilePath string `json:"file_path"`
			Content  string `json:"content"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		return Extracted{Content: in.Content, FilePath: in.FilePath, Context: rules.ContextFileWrite}

	case "Edit":
		var in struct {
			FilePath  string `json:"file_path"`
			NewString string `json:"new_string"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		return Extracted{Content: in.NewString, FilePath: in.FilePath, Context: rules.ContextFileWrite}

	case "MultiEdit":
		var in struct {
			FilePath string `json:"file_path"`
			Edits    []struct {
				NewString string `json:"new_string"`
			} `json:"edits"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		parts := make([]string, 0, len(in.Edits))
		for _, e := range in.Edits {
			parts = append(parts, e.NewString)
		}
		return Extracted{Content: strings.Join(parts, "\n"), FilePath: in.FilePath, Context: rules.ContextFileWrite}

	case "NotebookEdit":
		var in struct {
			NotebookPath string `json:"notebook_path"`
			NewSource    string `json:"new_source"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		return Extracted{Content: in.NewSource, FilePath: in.NotebookPath, Context: rules.ContextFileWrite}

	case "Bash":
		var in struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		return Extracted{Content: in.Command, Command: in.Command, Context: rules.ContextBash}

	case "Read":
		var in struct {
			FilePath string `json:"file_path"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		return Extracted{FilePath: in.FilePath, Context: rules.ContextAll}

	case "WebFetch":
		var in struct {
			URL    string `json:"url"`
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		content := in.URL
		if in.Prompt != "" {
			content += "\n" + in.Prompt
		}
		return Extracted{Content: content, URL: in.URL, Context: rules.ContextWeb}

	case "WebSearch":
		var in struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return unreadable(tool, err)
		}
		return Extracted{Content: in.Query, Context: rules.ContextWeb}
	}

	if strings.HasPrefix(tool, "mcp_") {
		return extractMCP(raw, maxMCPBytes)
	}
	return Extracted{Context: rules.ContextAll}
}

// extractMCP concatenates the top-level string values of an arbitrary
// MCP input, keys sorted for deterministic output.
func extractMCP(raw json.RawMessage, maxBytes int) Extracted {
	var in map[string]any
	if err := json.Unmarshal(raw, &in); err != nil {
		return unreadable("mcp", err)
	}

	keys := make([]string, 0, len(in))
	for k := range in {
		if _, ok := in[k].(string); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(in[k].(string))
	}

	content := b.String()
	truncated := false
	if maxBytes > 0 && len(content) > maxBytes {
		content = truncateValidUTF8(content, maxBytes)
		truncated = true
	}
	return Extracted{Content: content, Context: rules.ContextMCP, Truncated: truncated}
}

// ResponseText flattens a tool_response into plain text for boundary
// scanning. Responses arrive as a bare string, a block list, or an
// object with string fields; anything else scans as raw JSON.
func ResponseText(raw json.RawMessage) string {
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
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var b strings.Builder
		for _, blk := range blocks {
			if blk.Text != "" {
				b.WriteString(blk.Text)
				b.WriteByte('\n')
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			if _, ok := obj[k].(string); ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(obj[k].(string))
			b.WriteByte('\n')
		}
		return b.String()
	}

	return string(raw)
}

func unreadable(tool string, err error) Extracted {
	logger.Debug("failed to decode tool input", "tool", tool, "error", err)
	return Extracted{Context: rules.ContextAll}
}

// truncateValidUTF8 cuts s at limit bytes without splitting a rune.
func truncateValidUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for i := 0; i < 4 && len(cut) > 0; i++ {
		if r := []rune(cut[len(cut)-1:]); len(r) == 1 && r[0] != '�' {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}
