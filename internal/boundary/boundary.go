// Package boundary hardens external content before it reaches the
// model. Web responses and MCP payloads get wrapped in explicit
// markers, folded to defeat homoglyph games, and scanned for
// instruction-injection phrases.
package boundary

import (
	"regexp"
	"strings"
)

// Markers bracket external content so downstream consumers can tell
// quoted material from instructions.
const (
	StartMarker = "<!-- EXTERNAL_CONTENT_START -->"
	EndMarker   = "<!-- EXTERNAL_CONTENT_END -->"

	escapedStart = "<!-- EXTERNAL_CONTENT_START [escaped] -->"
	escapedEnd   = "<!-- EXTERNAL_CONTENT_END [escaped] -->"
)

// Wrap brackets content in the boundary markers. Marker strings
// already present in the content are rewritten to their [escaped]
// variants first so the wrapped region cannot be closed early.
func Wrap(content string) string {
	escaped := strings.ReplaceAll(content, StartMarker, escapedStart)
	escaped = strings.ReplaceAll(escaped, EndMarker, escapedEnd)
	return StartMarker + "\n" + escaped + "\n" + EndMarker
}

// foldTable maps Cyrillic and Greek lookalikes onto their Latin
// equivalents. Only visually-confusable letters are listed.
var foldTable = map[rune]rune{
	// Cyrillic lowercase
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'х': 'x', 'у': 'y',
	'і': 'i', 'ѕ': 's', 'ј': 'j',
	// Cyrillic uppercase
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M', 'Н': 'H', 'О': 'O',
	'Р': 'P', 'С': 'C', 'Т': 'T', 'У': 'Y', 'Х': 'X',
	// Greek lowercase
	'ο': 'o', 'ν': 'v', 'α': 'a', 'ι': 'i', 'κ': 'k', 'ρ': 'p', 'τ': 't',
	'υ': 'u',
	// Greek uppercase
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Ζ': 'Z', 'Η': 'H', 'Ι': 'I', 'Κ': 'K',
	'Μ': 'M', 'Ν': 'N', 'Ο': 'O', 'Ρ': 'P', 'Τ': 'T', 'Υ': 'Y', 'Χ': 'X',
}

// Fold normalizes homoglyphs: fullwidth ASCII collapses to ASCII, the
// ideographic space becomes a plain space, and confusable Cyrillic and
// Greek letters fold to Latin. Injection scanning always runs on the
// folded form.
func Fold(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0xFF01 && r <= 0xFF5E {
			return r - 0xFEE0
		}
		if r == 0x3000 {
			return ' '
		}
		if mapped, ok := foldTable[r]; ok {
			return mapped
		}
		return r
	}, s)
}

type injectionPattern struct {
	id string
	re *regexp.Regexp
}

var injectionBank = []injectionPattern{
	{"ignore-previous", regexp.MustCompile(`(?i)\bignore\s+(?:all\s+|any\s+)?(?:previous|prior|above|earlier)\s+(?:instructions?|prompts?|messages?|directives?)`)},
	{"disregard-instructions", regexp.MustCompile(`(?i)\bdisregard\s+(?:all\s+|any\s+)?(?:previous|prior|above|earlier|your|the)\s+(?:instructions?|prompts?|rules?|guidelines?)`)},
	{"forget-instructions", regexp.MustCompile(`(?i)\bforget\s+(?:everything|all\s+prior|your\s+(?:instructions?|rules?|training))`)},
	{"system-override", regexp.MustCompile(`(?i)\bsystem\s*(?:prompt|message)?\s*override\b|\boverride\s+(?:system|safety|security)\b`)},
	{"new-instructions", regexp.MustCompile(`(?i)\byour\s+new\s+(?:instructions?|task|objective|goal)\s+(?:is|are)\b|\bnew\s+instructions?\s*:`)},
	{"role-reassignment", regexp.MustCompile(`(?i)\byou\s+are\s+(?:now|no\s+longer)\b|\bact\s+as\s+if\s+you\s+(?:are|were)\b`)},
	{"jailbreak-persona", regexp.MustCompile(`\bDAN\b|(?i:\bdo\s+anything\s+now\b|\bdeveloper\s+mode\b|\bjailbreak(?:ed|ing)?\b)`)},
	{"bypass-restrictions", regexp.MustCompile(`(?i)\b(?:bypass|circumvent|work\s+around)\s+(?:the\s+|your\s+)?(?:restrictions?|filters?|safety|guardrails?|limitations?)\b`)},
	{"reveal-prompt", regexp.MustCompile(`(?i)\b(?:reveal|show|print|repeat|output)\s+(?:your\s+|the\s+)?(?:system\s+prompt|initial\s+instructions?|hidden\s+instructions?)\b`)},
	{"inst-markers", regexp.MustCompile(`(?i)\[/?(?:INST|SYSTEM)\]|<\|?(?:im_start|im_end|system)\|?>`)},
	{"tool-injection", regexp.MustCompile(`(?i)\b(?:run|execute|call)\s+the\s+following\s+(?:command|tool|code)\s+(?:immediately|now|first)\b`)},
}

// DetectInjection folds content and returns the ids of every
// injection phrase found. An empty slice means the content looks
// clean; a hit is reported, never blocked on here.
func DetectInjection(content string) []string {
	if content == "" {
		return nil
	}
	folded := Fold(content)
	var ids []string
	for _, p := range injectionBank {
		if p.re.MatchString(folded) {
			ids = append(ids, p.id)
		}
	}
	return ids
}
