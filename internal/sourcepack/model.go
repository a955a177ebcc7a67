// Package sourcepack holds the immutable model of an input datapack: the
// flat map of fully-qualified function names to their ordered source lines.
package sourcepack

import (
	"fmt"
	"sort"
)

// FunctionName is a fully-qualified "namespace:path/to/fn" identifier.
type FunctionName struct {
	Namespace string
	Path      string // slash-separated, no extension
}

// String renders the canonical "ns:path" form.
func (f FunctionName) String() string {
	return f.Namespace + ":" + f.Path
}

// ParseFunctionName splits a "ns:path" resource name into its parts. It
// does not validate the grammar; callers that need the strict
// resource-name charset use parser.ValidResourceName.
func ParseFunctionName(s string) (FunctionName, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return FunctionName{Namespace: s[:i], Path: s[i+1:]}, nil
		}
	}
	return FunctionName{}, fmt.Errorf("%q: missing namespace separator ':'", s)
}

// SourceLine is one physical line of an input function, 1-based.
type SourceLine struct {
	Number int
	Raw    string
}

// SourceFunction is an input function: an ordered, contiguous sequence of
// source lines identified by (Namespace, Path).
type SourceFunction struct {
	Name  FunctionName
	Lines []SourceLine
}

// SourceDatapack is the immutable result of loading an input tree: a flat
// map from fully-qualified function name to its SourceFunction, plus the
// fixed and configurable namespace names used throughout compilation.
type SourceDatapack struct {
	Functions map[string]*SourceFunction // keyed by FunctionName.String()

	// DebugNamespace is always "debug".
	DebugNamespace string
	// InternalNamespace is the configurable "ns" (<=7 chars), default "mcfd".
	InternalNamespace string
}

// Lookup returns the function for a fully-qualified name, or nil if absent.
func (d *SourceDatapack) Lookup(name string) *SourceFunction {
	return d.Functions[name]
}

// SortedNames returns function names in lexicographic order, for
// deterministic iteration across the compiler.
func (d *SourceDatapack) SortedNames() []string {
	names := make([]string, 0, len(d.Functions))
	for n := range d.Functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
