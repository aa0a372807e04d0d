// Package inference implements the opt-in second-opinion check: at
// session stop, the final exchange is shown to a small Anthropic model
// that judges whether the response describes completed work. Every
// failure path returns a passing assessment, so this cycle can add
// signal but never break a stop hook.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/customgpt/quadverify/internal/config"
	"github.com/customgpt/quadverify/internal/constants"
	"github.com/customgpt/quadverify/internal/logger"
	"github.com/customgpt/quadverify/internal/session"
)

// Assessment is the verifier's judgment of the final response.
type Assessment struct {
	Pass      bool   `json:"pass"`
	Reasoning string `json:"reasoning"`
	Skipped   bool   `json:"-"`
}

const (
	requestTimeout    = 10 * time.Second
	maxRequestRunes   = 500
	maxResponseRunes  = 2000
	verifierMaxTokens = 500
)

// Verify asks the configured model for a second opinion on the final
// response. Disabled config, short responses, missing keys, transport
// errors, and unparseable replies all return a passing assessment with
// the cause in Reasoning.
func Verify(ctx context.Context, cfg config.Cycle5Config, request, response string) Assessment {
	if !cfg.Enabled {
		return Assessment{Pass: true, Skipped: true, Reasoning: "verification disabled"}
	}
	if session.EstimateTokens(response) < cfg.MinResponseTokens {
		return Assessment{Pass: true, Skipped: true, Reasoning: "response below verification threshold"}
	}

	var opts []option.RequestOption
	if key := apiKey(cfg); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	client := anthropic.NewClient(opts...)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		MaxTokens: verifierMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(request, response))),
		},
	})
	if err != nil {
		logger.Debug("inference verification failed", "error", err)
		return Assessment{Pass: true, Reasoning: fmt.Sprintf("fail-open: verification request failed: %v", err)}
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	assessment, err := parseAssessment(text.String())
	if err != nil {
		logger.Debug("inference reply unparseable", "error", err)
		return Assessment{Pass: true, Reasoning: fmt.Sprintf("fail-open: %v", err)}
	}
	return assessment
}

// apiKey resolves the key: the quadverify env var overrides the
// configured value. Empty means the SDK's own ambient configuration
// decides.
func apiKey(cfg config.Cycle5Config) string {
	if key := os.Getenv(constants.EnvAPIKey); key != "" {
		return key
	}
	return cfg.APIKey
}

func buildPrompt(request, response string) string {
	return fmt.Sprintf(`A coding agent was given this task:

%s

The agent's final response was:

%s

Judge whether the response describes completed, verified work rather than intentions, plans, or partial work. Reply with JSON only, no other text: {"pass": true or false, "reasoning": "one sentence"}`,
		truncateRunes(request, maxRequestRunes), truncateRunes(response, maxResponseRunes))
}

// parseAssessment extracts the JSON object from the model reply, which
// may be wrapped in prose or code fences despite instructions.
func parseAssessment(reply string) (Assessment, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Assessment{}, fmt.Errorf("no JSON object in verifier reply")
	}
	var a Assessment
	if err := json.Unmarshal([]byte(reply[start:end+1]), &a); err != nil {
		return Assessment{}, fmt.Errorf("failed to parse verifier reply: %w", err)
	}
	return a, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
