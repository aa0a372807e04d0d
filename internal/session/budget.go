package session

import "github.com/customgpt/quadverify/internal/rules"

// Feedback sources charged against the verification budget.
const (
	SourceBlockMessage      = "block-message"
	SourceStopPrompt        = "stop-prompt"
	SourceBehavioralWarning = "behavioral-warning"
	SourceCorrectionHint    = "correction-hint"
)

// Condensed-mode message bounds.
const (
	condenseThreshold = 80
	condenseKeep      = 77
)

// EstimateTokens approximates the token count of s as ceil(bytes/4).
// The estimate only has to be consistent, not exact: it meters our own
// feedback, not model input.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Charge records token spend against the budget under a source.
func Charge(st *State, source string, tokens int) {
	st.Budget.Total += tokens
	u := st.Budget.PerSource[source]
	if u == nil {
		u = &SourceUsage{}
		st.Budget.PerSource[source] = u
	}
	u.Tokens += tokens
	u.Count++
}

// Over reports whether spending tokens more would exceed max.
func Over(st *State, tokens, max int) bool {
	return st.Budget.Total+tokens > max
}

// Condense shortens violation messages for budget-constrained output
// and marks every violation as condensed so consumers know feedback
// was trimmed.
func Condense(vs []rules.Violation) []rules.Violation {
	out := make([]rules.Violation, len(vs))
	for i, v := range vs {
		if runes := []rune(v.Message); len(runes) > condenseThreshold {
			v.Message = string(runes[:condenseKeep]) + "..."
		}
		v.Condensed = true
		out[i] = v
	}
	return out
}
