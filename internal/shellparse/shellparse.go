// Package shellparse splits shell commands into analyzable pieces using a
// real shell parser, so quoting and redirection do not confuse the pattern
// scanners downstream.
package shellparse

import (
	"errors"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrUnparseable is returned when a command cannot be parsed as shell.
var ErrUnparseable = errors.New("unparseable command")

// Segments splits a command on &&, ||, ;, | and control structures and
// returns the simple commands in execution order. Command substitutions stay
// embedded in their parent segment. An empty command yields no segments.
func Segments(cmd string) ([]string, error) {
	if strings.TrimSpace(cmd) == "" {
		return nil, nil
	}

	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return nil, ErrUnparseable
	}

	printer := syntax.NewPrinter()
	var segments []string
	syntax.Walk(prog, func(node syntax.Node) bool {
		switch node.(type) {
		case *syntax.CallExpr, *syntax.DeclClause, *syntax.LetClause,
			*syntax.ArithmCmd, *syntax.TestClause:
			var buf strings.Builder
			if err := printer.Print(&buf, node); err == nil {
				if s := strings.TrimSpace(buf.String()); s != "" {
					segments = append(segments, s)
				}
			}
			return false
		}
		return true
	})

	return segments, nil
}

// Fields returns the word fields of the first simple command in a segment.
// Literal words come back unquoted; words the parser cannot reduce to a
// literal are returned as printed, with simple quotes trimmed. Falls back to
// whitespace splitting when the segment does not parse.
func Fields(segment string) []string {
	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(segment), "")
	if err != nil {
		return strings.Fields(segment)
	}

	printer := syntax.NewPrinter()
	var fields []string
	found := false
	syntax.Walk(prog, func(node syntax.Node) bool {
		if found {
			return false
		}
		call, ok := node.(*syntax.CallExpr)
		if !ok {
			return true
		}
		found = true
		for _, word := range call.Args {
			if lit := word.Lit(); lit != "" {
				fields = append(fields, lit)
				continue
			}
			var buf strings.Builder
			if err := printer.Print(&buf, word); err == nil {
				if s := strings.Trim(strings.TrimSpace(buf.String()), `"'`); s != "" {
					fields = append(fields, s)
				}
			}
		}
		return false
	})

	if len(fields) == 0 {
		return strings.Fields(segment)
	}
	return fields
}

// HasSubstitution reports whether the command contains command substitution
// ($(...) or backticks) outside quoted heredoc bodies.
func HasSubstitution(cmd string) bool {
	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return strings.Contains(cmd, "$(") || strings.Contains(cmd, "`")
	}
	found := false
	syntax.Walk(prog, func(node syntax.Node) bool {
		if _, ok := node.(*syntax.CmdSubst); ok {
			found = true
			return false
		}
		return !found
	})
	return found
}
