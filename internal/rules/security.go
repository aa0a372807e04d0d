package rules

import "strings"

// securityRules is the Cycle 2 catalog. Security rules carry the higher
// priority so they render first in blocking reasons.
func securityRules() []Rule {
	return []Rule{
		{
			ID:           "no-eval",
			Cycle:        CycleSecurity,
			Priority:     PrioritySecurity,
			Severity:     SeverityCritical,
			Code:         "security.eval-usage",
			Message:      "eval() executes arbitrary code",
			Remediation:  "Parse data with JSON.parse or ast.literal_eval instead of eval().",
			AppliesTo:    ContextFileWrite,
			Pattern:      `\beval\s*\(`,
			ContextAware: true,
		},
		{
			ID:           "no-exec",
			Cycle:        CycleSecurity,
			Priority:     PrioritySecurity,
			Severity:     SeverityCritical,
			Code:         "security.exec-usage",
			Message:      "exec() executes arbitrary code",
			Remediation:  "Call the needed function directly instead of building code strings for exec().",
			AppliesTo:    ContextFileWrite,
			Pattern:      `\bexec\s*\(`,
			ContextAware: true,
		},
		{
			ID:           "no-process-shell",
			Cycle:        CycleSecurity,
			Priority:     PrioritySecurity,
			Severity:     SeverityCritical,
			Code:         "security.process-shell",
			Message:      "spawns a shell from code",
			Remediation:  "Invoke the program with an argument vector instead of a shell string.",
			AppliesTo:    ContextFileWrite,
			Pattern:      `(?:\bexecSync|\bspawnSync|child_process\.exec)\s*\(|\bos\.system\s*\(|\bos\.popen\s*\(`,
			ContextAware: true,
		},
		{
			ID:             "no-shell-true",
			Cycle:          CycleSecurity,
			Priority:       PrioritySecurity,
			Severity:       SeverityCritical,
			Code:           "security.subprocess-shell",
			Message:        "subprocess call with shell=True",
			Remediation:    "Pass the command as a list and drop shell=True.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `shell\s*=\s*True\b`,
			FileExtensions: pythonExts,
			ContextAware:   true,
		},
		{
			ID:          "no-hardcoded-secrets",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.hardcoded-secret",
			Message:     "credential assigned as a string literal",
			Remediation: "Load the credential from the environment or a secret store, never source text.",
			AppliesTo:   ContextFileWrite,
			Pattern:     `(?i)(?:api[_-]?key|secret|passwd|password|token|auth[_-]?token|private[_-]?key)["']?\s*[:=]\s*["'][^"'\n]{8,}["']`,
			SkipIf:      secretPlaceholder,
		},
		{
			ID:          "no-sql-concat",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.sql-injection",
			Message:     "SQL assembled by string concatenation",
			Remediation: "Use parameterized queries; never splice values into SQL text.",
			AppliesTo:   ContextFileWrite,
			Pattern:     `(?i)["'][^"'\n]*\b(?:select|insert|update|delete)\b[^"'\n]*["']\s*\+|\+\s*["']\s*(?:where|and|or|order\s+by|values)\b`,
		},
		{
			ID:          "no-sql-interpolation",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.sql-injection",
			Message:     "SQL assembled by string interpolation",
			Remediation: "Use parameterized queries; never interpolate values into SQL text.",
			AppliesTo:   ContextFileWrite,
			Pattern:     `(?i)f["'][^"'\n]*\b(?:select|insert|update|delete)\b[^"'\n]*\{` + "|(?i)`[^`]*\\b(?:select|insert|update|delete)\\b[^`]*\\$\\{",
		},
		{
			ID:             "no-innerhtml",
			Cycle:          CycleSecurity,
			Priority:       PrioritySecurity,
			Severity:       SeverityCritical,
			Code:           "security.dom-injection",
			Message:        "raw HTML sink (innerHTML/outerHTML/document.write)",
			Remediation:    "Build DOM nodes or use textContent; raw HTML sinks enable XSS.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `\.(?:innerHTML|outerHTML)\s*=|insertAdjacentHTML\s*\(|document\.write\s*\(`,
			FileExtensions: cFamilyExts,
			ContextAware:   true,
		},
		{
			ID:          "no-rm-rf-root",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.destructive-delete",
			Message:     "recursive delete targets the filesystem root or home",
			Remediation: "Delete the specific build artifact or directory, never / or the home directory.",
			AppliesTo:   ContextBash,
			Pattern:     `\brm\s+(?:-[a-zA-Z]*[rR][a-zA-Z]*|--recursive)(?:\s+(?:-[a-zA-Z]+|--force|--no-preserve-root))*\s+(?:"?(?:/|~|\$HOME)"?[/*]*)(?:\s|$|;)`,
		},
		{
			ID:          "no-world-writable",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.world-writable",
			Message:     "chmod grants world-writable permissions",
			Remediation: "Grant the narrowest mode that works; 777/o+w exposes the file to every local user.",
			AppliesTo:   ContextBash,
			Pattern:     `\bchmod\s+(?:-[a-zA-Z]+\s+)*(?:0?777|a\+rwx|o\+w)\b`,
		},
		{
			ID:          "no-curl-pipe-sh",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.remote-exec",
			Message:     "pipes a downloaded script into a shell",
			Remediation: "Download the script, inspect it, then run the reviewed copy.",
			AppliesTo:   ContextBash,
			Pattern:     `\b(?:curl|wget)\b[^|\n]*\|\s*(?:sudo\s+)?(?:ba|z|da|k|fi)?sh\b`,
		},
		{
			ID:          "no-insecure-http",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityWarn,
			Code:        "security.insecure-transport",
			Message:     "plain-http URL",
			Remediation: "Use https; plain http exposes the request in transit.",
			AppliesTo:   ContextAll,
			Pattern:     `http://[^\s"'<>)\]]+`,
			SkipIf:      loopbackURL,
		},
		{
			ID:          "no-system-prompt-leak",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityWarn,
			Code:        "security.prompt-leak",
			Message:     "logs system prompt or instruction text",
			Remediation: "Remove the logging of prompt or instruction internals.",
			AppliesTo:   ContextAll,
			Pattern:     `(?i)(?:console\.log|print|echo|logg(?:er|ing)\.\w+)\s*\(?[^)\n]*(?:system[ _-]?prompt|my instructions|initial instructions)`,
		},
		{
			ID:          "no-base64-exfil",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.base64-exfil",
			Message:     "base64-encoded data piped to a network tool",
			Remediation: "Do not ship encoded local data to the network; encoding is not authorization.",
			AppliesTo:   ContextBash,
			Pattern:     `\bbase64\b[^|\n]*\|\s*(?:curl|wget|nc|ncat)\b|\b(?:curl|wget)\b[^\n]*\$\(\s*base64\b`,
		},
		{
			ID:          "no-env-dump",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityWarn,
			Code:        "security.env-dump",
			Message:     "dumps the process environment",
			Remediation: "Read the single variable you need instead of dumping the environment.",
			AppliesTo:   ContextBash,
			Pattern:     `(?:^|[|;&]\s*)(?:env|printenv)\s*(?:$|[|>])|\bcat\s+/proc/[^/\s]+/environ\b`,
		},
		{
			ID:          "no-file-upload-exfil",
			Cycle:       CycleSecurity,
			Priority:    PrioritySecurity,
			Severity:    SeverityCritical,
			Code:        "security.data-exfil",
			Message:     "uploads a local file to a remote endpoint",
			Remediation: "Do not post local files to external endpoints from an automated session.",
			AppliesTo:   ContextBash,
			Pattern:     `\bcurl\b[^\n]*(?:\s-(?:F|T|d)\s*@|--form\b|--upload-file\b|--data\s*@)`,
		},
		{
			ID:             "no-pickle-load",
			Cycle:          CycleSecurity,
			Priority:       PrioritySecurity,
			Severity:       SeverityCritical,
			Code:           "security.pickle-deserialization",
			Message:        "unpickling untrusted data executes code",
			Remediation:    "Deserialize with json or another data-only format instead of pickle.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `\bpickle\.loads?\s*\(|\bcPickle\.loads?\s*\(`,
			FileExtensions: pythonExts,
			ContextAware:   true,
		},
	}
}

// secretPlaceholder suppresses hardcoded-secret matches whose value is
// clearly a template or environment reference rather than a live credential.
func secretPlaceholder(content string, loc []int) bool {
	m := strings.ToLower(content[loc[0]:loc[1]])
	for _, marker := range []string{
		"$", "<", "process.env", "os.environ", "example", "changeme",
		"your-", "your_", "xxx", "dummy", "sample", "placeholder", "redacted", "...",
	} {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

// loopbackURL suppresses insecure-transport matches against loopback and
// documentation hosts.
func loopbackURL(content string, loc []int) bool {
	m := strings.ToLower(content[loc[0]:loc[1]])
	for _, prefix := range []string{
		"http://localhost", "http://127.", "http://0.0.0.0", "http://[::1]",
		"http://example.", "http://www.example.",
	} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	// Schema and namespace URIs are identifiers, not transports.
	return strings.Contains(m, "www.w3.org") || strings.Contains(m, "://schemas.")
}
