// Package template holds the fixed library of parameterized command-file
// templates that encode the debugger's runtime state machine, plus the
// placeholder substitution engine the emitter drives them with.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern is the closed placeholder grammar: an identifier
// sandwiched in single hyphens.
var placeholderPattern = regexp.MustCompile(`-[a-z0-9_+./]+-`)

// Env is a PlaceholderEnvironment: a mapping from placeholder symbol
// (including its surrounding hyphens, e.g. "-ns-") to its literal
// replacement text.
type Env map[string]string

// With returns a new Env that is the receiver merged with overrides;
// overrides win. The receiver is never mutated, so a compilation-wide base
// Env can be reused as the starting point for every per-site Env without
// aliasing bugs.
func (e Env) With(overrides Env) Env {
	merged := make(Env, len(e)+len(overrides))
	for k, v := range e {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// UnboundPlaceholderError reports a template instantiation where one or
// more placeholders had no entry in the Env.
type UnboundPlaceholderError struct {
	Template string
	Names    []string
}

func (e *UnboundPlaceholderError) Error() string {
	return fmt.Sprintf("unbound placeholder(s) %s in template %q", strings.Join(e.Names, ", "), e.Template)
}

// Render performs the only legal instantiation operation: simultaneous,
// non-recursive substitution of every placeholder present in tmpl from env.
// Substitution is single-pass by construction (regexp.ReplaceAllStringFunc
// scans the original template text exactly once; replacement values are
// never re-scanned), so a placeholder's literal value may itself contain
// "-looking-like-this-" text without corrupting later output.
func Render(templateName, tmpl string, env Env) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		val, ok := env[tok]
		if !ok {
			missing = append(missing, tok)
			return tok
		}
		return val
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &UnboundPlaceholderError{Template: templateName, Names: dedupe(missing)}
	}
	return out, nil
}

func dedupe(s []string) []string {
	out := s[:0:0]
	seen := make(map[string]bool, len(s))
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ContainsUnresolvedPlaceholder reports whether s contains any substring
// matching the placeholder grammar.
func ContainsUnresolvedPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}
