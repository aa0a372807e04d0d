package hook

import (
	"encoding/json"

	"github.com/customgpt/quadverify/internal/logger"
)

// Decision values in the output envelope.
const (
	DecisionApprove = "approve"
	DecisionBlock   = "block"
)

// Envelope is the pre-tool decision sent back on stdout.
type Envelope struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// PromptEnvelope is the stop-hook output carrying a prompt for the
// agent.
type PromptEnvelope struct {
	Prompt string `json:"prompt"`
}

const approveJSON = `{"decision":"approve"}`

// FormatApprove returns the approval envelope.
func FormatApprove() string {
	return approveJSON
}

// FormatBlock returns a block envelope with the given reason. A
// marshal failure degrades to approval: a block we cannot serialize
// must not stall the session.
func FormatBlock(reason string) string {
	data, err := json.Marshal(Envelope{Decision: DecisionBlock, Reason: reason})
	if err != nil {
		logger.Debug("failed to marshal block output", "error", err)
		return approveJSON
	}
	return string(data)
}

// FormatPrompt returns the stop envelope carrying prompt, or empty for
// an empty prompt so the caller writes nothing.
func FormatPrompt(prompt string) string {
	if prompt == "" {
		return ""
	}
	data, err := json.Marshal(PromptEnvelope{Prompt: prompt})
	if err != nil {
		logger.Debug("failed to marshal prompt output", "error", err)
		return ""
	}
	return string(data)
}
