// Package rules implements the verification rule catalogs and the engine
// that evaluates tool input against them.
//
// Rules are declared in Go and compiled once at package load. A rule whose
// pattern fails to compile is dropped with a diagnostic rather than crashing
// the hook. Evaluation isolates each rule: a panicking predicate skips that
// rule and the scan continues.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/customgpt/quadverify/internal/lexical"
	"github.com/customgpt/quadverify/internal/logger"
)

// Severity of a violation. Critical and warn block; info is reported only
// (unless strict trust upgrades it).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarn     Severity = "warn"
	SeverityInfo     Severity = "info"
)

// Context names where a rule applies.
type Context string

const (
	ContextFileWrite Context = "fileWrite"
	ContextBash      Context = "bash"
	ContextMCP       Context = "mcp"
	ContextWeb       Context = "web"
	ContextAll       Context = "all"
)

// Verification cycles.
const (
	CycleQuality   = 1
	CycleSecurity  = 2
	CycleReview    = 3
	CycleResearch  = 4
	CycleInference = 5
)

// Priorities. Higher sorts first in the rendered reason.
const (
	PriorityDefault  = 100
	PrioritySecurity = 200
)

// SkipFunc suppresses a match. loc is the [start,end) byte range of the
// match within content.
type SkipFunc func(content string, loc []int) bool

// Rule is one verification check.
type Rule struct {
	ID             string
	Cycle          int
	Priority       int
	Severity       Severity
	Code           string
	Message        string
	Remediation    string
	AppliesTo      Context
	Pattern        string
	FileExtensions []string
	ContextAware   bool
	SkipIf         SkipFunc

	re *regexp.Regexp
}

// Violation is one rule hit, ready for rendering and audit.
type Violation struct {
	RuleID      string   `json:"ruleId"`
	Cycle       int      `json:"cycle"`
	Priority    int      `json:"priority"`
	Severity    Severity `json:"severity"`
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
	Condensed   bool     `json:"condensed,omitempty"`
}

var (
	enforcementCatalog []Rule
	researchCatalog    []Rule
)

func init() {
	enforcementCatalog = compile(append(qualityRules(), securityRules()...))
	researchCatalog = compile(researchRules())
}

// compile resolves rule patterns, dropping any that fail.
func compile(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			logger.Debug("dropping rule with invalid pattern", "rule", r.ID, "error", err)
			continue
		}
		r.re = re
		out = append(out, r)
	}
	return out
}

// Enforcement returns the quality and security catalog used on pre-tool.
func Enforcement() []Rule {
	return enforcementCatalog
}

// Research returns the research-integrity catalog.
func Research() []Rule {
	return researchCatalog
}

// All returns every compiled rule, enforcement first.
func All() []Rule {
	all := make([]Rule, 0, len(enforcementCatalog)+len(researchCatalog))
	all = append(all, enforcementCatalog...)
	all = append(all, researchCatalog...)
	return all
}

// Request describes one evaluation pass.
type Request struct {
	Content string
	Ext     string // file extension with dot, empty for non-file input
	Context Context
	Path    string
	// Disabled rule ids (ignored when IgnoreDisabled is set by a strict route)
	Disabled       map[string]bool
	OnlyCritical   bool
	IgnoreDisabled bool
}

// matchCap bounds how many match sites a context-aware or skip-predicate
// rule examines before giving up on the content.
const matchCap = 200

// Evaluate runs the catalog against the request and returns violations
// sorted by priority, highest first, stable within equal priority.
func Evaluate(catalog []Rule, req Request) []Violation {
	var stripped string
	strippedReady := false
	strip := func() string {
		if !strippedReady {
			stripped = lexical.Strip(req.Content, req.Ext)
			strippedReady = true
		}
		return stripped
	}

	var out []Violation
	for i := range catalog {
		if v, ok := evalRule(&catalog[i], req, strip); ok {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func evalRule(r *Rule, req Request, strip func() string) (v Violation, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Debug("rule evaluation panicked", "rule", r.ID, "panic", rec)
			ok = false
		}
	}()

	if r.re == nil {
		return Violation{}, false
	}
	if req.Disabled[r.ID] && !req.IgnoreDisabled {
		return Violation{}, false
	}
	if req.OnlyCritical && r.Severity != SeverityCritical {
		return Violation{}, false
	}
	if r.AppliesTo != ContextAll && r.AppliesTo != req.Context {
		return Violation{}, false
	}
	if len(r.FileExtensions) > 0 && !containsExt(r.FileExtensions, req.Ext) {
		return Violation{}, false
	}

	if !r.ContextAware && r.SkipIf == nil {
		loc := r.re.FindStringIndex(req.Content)
		if loc == nil {
			return Violation{}, false
		}
		return r.violationAt(req.Content, loc), true
	}

	for _, loc := range r.re.FindAllStringIndex(req.Content, matchCap) {
		if r.ContextAware && lexical.MaskedAt(req.Content, strip(), loc[0]) {
			continue
		}
		if r.SkipIf != nil && r.SkipIf(req.Content, loc) {
			continue
		}
		return r.violationAt(req.Content, loc), true
	}
	return Violation{}, false
}

func containsExt(exts []string, ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

func (r *Rule) violationAt(content string, loc []int) Violation {
	msg := r.Message
	if r.Cycle == CycleResearch {
		if snip := matchSnippet(content[loc[0]:loc[1]]); snip != "" {
			msg += ": " + strconv.Quote(snip)
		}
	}
	return Violation{
		RuleID:      r.ID,
		Cycle:       r.Cycle,
		Priority:    r.Priority,
		Severity:    r.Severity,
		Code:        r.Code,
		Message:     msg,
		Remediation: r.Remediation,
	}
}

// matchSnippet trims a match down to a single short line for messages.
func matchSnippet(m string) string {
	m = strings.TrimSpace(m)
	if i := strings.IndexByte(m, '\n'); i >= 0 {
		m = m[:i]
	}
	runes := []rune(m)
	if len(runes) > 40 {
		m = string(runes[:37]) + "..."
	}
	return m
}

// ShouldBlock reports whether the violation set blocks. Critical and warn
// block; info blocks only under strict trust.
func ShouldBlock(vs []Violation, strict bool) bool {
	for _, v := range vs {
		switch v.Severity {
		case SeverityCritical, SeverityWarn:
			return true
		case SeverityInfo:
			if strict {
				return true
			}
		}
	}
	return false
}

// FormatReason renders the violation lines for a blocking decision. Each
// line carries the cycle and rule id so downstream tooling can parse them.
func FormatReason(vs []Violation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Blocked: %d verification issue(s).\n", len(vs))
	for _, v := range vs {
		fmt.Fprintf(&b, "\n[Cycle %d - %s] %s", v.Cycle, v.RuleID, v.Message)
	}
	return b.String()
}

// IDs returns the rule ids of a violation set in order.
func IDs(vs []Violation) []string {
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.RuleID)
	}
	return ids
}
