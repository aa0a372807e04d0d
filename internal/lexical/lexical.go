// Package lexical classifies source offsets as code or comment/string text.
//
// Two language families are supported: C-family (JavaScript/TypeScript) and
// indentation-family (Python). Strip returns a length-preserving copy of the
// input with comment and string spans blanked to spaces, so an offset into
// the original maps directly onto the stripped copy. Newlines survive
// stripping to keep line structure intact.
package lexical

import (
	"path/filepath"
	"strings"
)

// Family is the lexical family inferred from a file extension.
type Family int

const (
	FamilyNone Family = iota
	FamilyC
	FamilyIndent
)

var familyByExt = map[string]Family{
	".js":  FamilyC,
	".ts":  FamilyC,
	".jsx": FamilyC,
	".tsx": FamilyC,
	".mjs": FamilyC,
	".cjs": FamilyC,
	".py":  FamilyIndent,
	".pyi": FamilyIndent,
}

// FamilyForExt maps an extension (with leading dot, any case) to its family.
func FamilyForExt(ext string) Family {
	return familyByExt[strings.ToLower(ext)]
}

// FamilyForPath maps a file path to its lexical family.
func FamilyForPath(path string) Family {
	return FamilyForExt(filepath.Ext(path))
}

// Strip blanks comments and string literals to spaces, preserving length and
// newlines. Unsupported extensions return the content unchanged. Stripping
// is idempotent: a stripped string contains no remaining spans to blank.
func Strip(content, ext string) string {
	switch FamilyForExt(ext) {
	case FamilyC:
		return stripC(content)
	case FamilyIndent:
		return stripIndent(content)
	default:
		return content
	}
}

// IsInCommentOrString reports whether the byte at offset lies inside a
// comment or string literal for the file's family. Offsets outside the
// content and unsupported families are never masked.
func IsInCommentOrString(content string, offset int, ext string) bool {
	if offset < 0 || offset >= len(content) {
		return false
	}
	if FamilyForExt(ext) == FamilyNone {
		return false
	}
	return MaskedAt(content, Strip(content, ext), offset)
}

// MaskedAt answers IsInCommentOrString against a pre-computed stripped copy,
// letting callers strip once and test many offsets.
func MaskedAt(content, stripped string, offset int) bool {
	if offset < 0 || offset >= len(stripped) || offset >= len(content) {
		return false
	}
	return stripped[offset] == ' ' && content[offset] != ' '
}

// blank replaces b[i] with a space unless it is a newline.
func blank(b []byte, i int) {
	if b[i] != '\n' {
		b[i] = ' '
	}
}

func blankRange(b []byte, from, to int) {
	for i := from; i < to && i < len(b); i++ {
		blank(b, i)
	}
}

// stripC handles //, /* */, single- and double-quoted strings, and backtick
// templates. Template interpolation is treated as literal text. Unterminated
// spans blank to end of input (or end of line for single-line strings).
func stripC(content string) string {
	b := []byte(content)
	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			start := i
			for i < len(b) && b[i] != '\n' {
				i++
			}
			blankRange(b, start, i)

		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			start := i
			i += 2
			for i < len(b) {
				if b[i] == '*' && i+1 < len(b) && b[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
			blankRange(b, start, i)

		case c == '`':
			start := i
			i++
			for i < len(b) {
				if b[i] == '\\' && i+1 < len(b) {
					i += 2
					continue
				}
				if b[i] == '`' {
					i++
					break
				}
				i++
			}
			blankRange(b, start, i)

		case c == '"' || c == '\'':
			i = stripLineString(b, i, c)

		default:
			i++
		}
	}
	return string(b)
}

// stripLineString blanks a quoted string that cannot span lines. An
// unterminated string blanks to end of line.
func stripLineString(b []byte, start int, quote byte) int {
	i := start + 1
	for i < len(b) && b[i] != '\n' {
		if b[i] == '\\' && i+1 < len(b) {
			i += 2
			continue
		}
		if b[i] == quote {
			i++
			blankRange(b, start, i)
			return i
		}
		i++
	}
	blankRange(b, start, i)
	return i
}

// stripIndent handles # comments, triple-quoted strings, and single-line
// quoted strings. Triple quotes are checked before single quotes so that
// docstrings blank as one span.
func stripIndent(content string) string {
	b := []byte(content)
	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c == '#':
			start := i
			for i < len(b) && b[i] != '\n' {
				i++
			}
			blankRange(b, start, i)

		case (c == '"' || c == '\'') && i+2 < len(b) && b[i+1] == c && b[i+2] == c:
			start := i
			quote := c
			i += 3
			for i < len(b) {
				if b[i] == '\\' && i+1 < len(b) {
					i += 2
					continue
				}
				if b[i] == quote && i+2 < len(b) && b[i+1] == quote && b[i+2] == quote {
					i += 3
					break
				}
				if b[i] == quote && i+2 >= len(b) {
					i = len(b)
					break
				}
				i++
			}
			blankRange(b, start, i)

		case c == '"' || c == '\'':
			i = stripLineString(b, i, c)

		default:
			i++
		}
	}
	return string(b)
}
