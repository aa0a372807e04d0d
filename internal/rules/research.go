package rules

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// proximityWindow is how many bytes around a claim we search for a
// citation before flagging it as unsourced.
const proximityWindow = 300

// sourceRef matches anything that counts as a citation: a markdown
// link, a bare URL, or an inline [source]/[ref]/[verified] tag.
var sourceRef = regexp.MustCompile(`(?i)\[[^\]]*\]\([^)]+\)|https?://\S+|\[(?:source|ref|verified|citation)\b[^\]]*\]`)

// hasNearbySource reports whether a citation appears within
// proximityWindow bytes of the match at loc. Claims with a nearby
// source are considered cited and skipped.
func hasNearbySource(content string, loc []int) bool {
	start := loc[0] - proximityWindow
	if start < 0 {
		start = 0
	}
	end := loc[1] + proximityWindow
	if end > len(content) {
		end = len(content)
	}
	return sourceRef.MatchString(content[start:end])
}

// researchGlobs mark the parts of a project where markdown files are
// treated as research output and held to citation standards.
var researchGlobs = []string{
	"**/docs/research/**",
	"**/research/**",
	"**/research-*.md",
	"**/*-research.md",
}

// IsResearchPath reports whether path is a research document: a
// markdown file under a research directory or following a research
// naming convention.
func IsResearchPath(path string) bool {
	if path == "" {
		return false
	}
	p := strings.ToLower(filepath.ToSlash(path))
	ext := filepath.Ext(p)
	if ext != ".md" && ext != ".markdown" {
		return false
	}
	for _, glob := range researchGlobs {
		if ok, err := doublestar.Match(glob, p); err == nil && ok {
			return true
		}
	}
	return false
}

// researchRules is the Cycle 4 catalog: factual-claim hygiene in
// research documents. Every rule skips claims with a nearby citation,
// so a well-sourced document produces no findings.
func researchRules() []Rule {
	return []Rule{
		{
			ID:             "research-unsourced-number",
			Cycle:          CycleResearch,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "research.unsourced-number",
			Message:        "numeric claim without a nearby source",
			Remediation:    "Add a citation (link or [source] tag) near the figure, or remove it if it cannot be sourced.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `\b\d[\d,]*(?:\.\d+)?\s*(?:%|percent(?:age)?\b|million\b|billion\b|trillion\b|thousand\b|times\b|x\b)|\b\d{1,3}(?:,\d{3})+\b`,
			FileExtensions: markdownExt,
			SkipIf:         hasNearbySource,
		},
		{
			ID:             "research-vague-quantifier",
			Cycle:          CycleResearch,
			Priority:       PriorityDefault,
			Severity:       SeverityInfo,
			Code:           "research.vague-quantifier",
			Message:        "vague quantifier presented as fact",
			Remediation:    "Replace the vague claim with a specific, cited figure, or attribute it explicitly.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `(?i)\b(?:most|many|several|numerous|countless|a majority of|studies show|research (?:shows|suggests|indicates)|experts (?:say|agree|believe)|it is (?:well[- ]known|widely (?:known|accepted|believed)))\b`,
			FileExtensions: markdownExt,
			SkipIf:         hasNearbySource,
		},
		{
			ID:             "research-unsourced-institution",
			Cycle:          CycleResearch,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "research.unsourced-institution",
			Message:        "institutional claim without a nearby source",
			Remediation:    "Cite the specific publication or report from the named institution.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `\b(?:Harvard|Stanford|MIT|Oxford|Cambridge|Yale|Princeton|Berkeley|McKinsey|Gartner|Forrester|Pew Research|World Bank|IMF|WHO|CDC|NASA|OECD|United Nations)\b`,
			FileExtensions: markdownExt,
			SkipIf:         hasNearbySource,
		},
		{
			ID:             "research-uncited-year",
			Cycle:          CycleResearch,
			Priority:       PriorityDefault,
			Severity:       SeverityInfo,
			Code:           "research.uncited-year",
			Message:        "dated claim without a nearby source",
			Remediation:    "Add a citation for the dated claim so the year can be verified.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `\b(?:19|20)\d{2}\b`,
			FileExtensions: markdownExt,
			SkipIf:         hasNearbySource,
		},
		{
			ID:             "research-uncited-currency",
			Cycle:          CycleResearch,
			Priority:       PriorityDefault,
			Severity:       SeverityWarn,
			Code:           "research.uncited-currency",
			Message:        "monetary claim without a nearby source",
			Remediation:    "Cite the source of the monetary figure, or remove it if it cannot be sourced.",
			AppliesTo:      ContextFileWrite,
			Pattern:        `[$€£¥]\s?\d[\d,]*(?:\.\d+)?(?:\s*(?:million|billion|trillion|thousand|[MBKk]))?\b|\b\d[\d,]*(?:\.\d+)?\s*(?:dollars|euros|pounds|USD|EUR|GBP)\b`,
			FileExtensions: markdownExt,
			SkipIf:         hasNearbySource,
		},
	}
}
