// Package callgraph builds the declared->callee graph over a SourceDatapack
// and classifies each node's own validity and each edge's callee status.
package callgraph

import (
	"sort"

	"github.com/mcfdebug/mcfdebug/internal/parser"
	"github.com/mcfdebug/mcfdebug/internal/program"
	"github.com/mcfdebug/mcfdebug/internal/sourcepack"
)

// Validity is a function's own classification, derived only from whether
// its parsed content contains an InvalidCommand.
type Validity int

const (
	Valid Validity = iota
	Invalid
)

// CalleeStatus classifies a referenced callee from the point of view of one
// call site. It is a per-edge attribute, not a property of the callee
// function itself, by design: callers of an invalid callee are still
// instrumented.
type CalleeStatus int

const (
	Present CalleeStatus = iota
	Missing
	CalleeInvalid
)

// Edge is one declared->callee reference, labeled with the calling line.
type Edge struct {
	Caller     string // fully-qualified name
	Callee     string
	LineNumber int
	Status     CalleeStatus
}

// Graph is the directed multigraph of call references plus per-node
// validity, computed once from a parsed program.Program.
type Graph struct {
	Validity map[string]Validity // keyed by function name
	Edges    []Edge              // stable order: caller name, then line number
	invalid  map[string][]*parser.InvalidCommand
}

// NodeValidity returns a node's own validity; names that are not functions
// of the parsed program (such as missing callees) default to Valid.
func (g *Graph) NodeValidity(name string) Validity {
	if v, ok := g.Validity[name]; ok {
		return v
	}
	return Valid
}

// InvalidCommands returns the accumulated InvalidCommand diagnostics for a
// function, in line-number order.
func (g *Graph) InvalidCommands(name string) []*parser.InvalidCommand {
	return g.invalid[name]
}

// Build scans every parsed line of every source function, recording one
// edge per function/schedule reference found (including inside execute
// chains and nested execute chains) and marking a function Invalid the
// moment any of its lines fails to parse.
//
// Each edge's callee status is resolved in a second pass, once every node's own
// validity is known, since an edge's status depends on the *callee's*
// validity which may not yet have been computed when the edge is first
// discovered.
func Build(dp *sourcepack.SourceDatapack, parsed map[string]*program.Function) *Graph {
	g := &Graph{
		Validity: make(map[string]Validity),
		invalid:  make(map[string][]*parser.InvalidCommand),
	}

	type pendingEdge struct {
		caller     string
		callee     string
		lineNumber int
	}
	var pending []pendingEdge

	names := make([]string, 0, len(parsed))
	for name := range parsed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lines := parsed[name].Lines
		valid := Valid
		for _, sl := range lines {
			if sl.Err != nil {
				valid = Invalid
				g.invalid[name] = append(g.invalid[name], sl.Err)
				continue
			}
			collectCallees(sl.Line, func(callee string) {
				pending = append(pending, pendingEdge{caller: name, callee: callee, lineNumber: sl.LineNumber})
			})
		}
		g.Validity[name] = valid
	}

	for _, pe := range pending {
		status := Present
		if dp.Lookup(pe.callee) == nil {
			status = Missing
		} else if g.NodeValidity(pe.callee) == Invalid {
			status = CalleeInvalid
		}
		g.Edges = append(g.Edges, Edge{
			Caller:     pe.caller,
			Callee:     pe.callee,
			LineNumber: pe.lineNumber,
			Status:     status,
		})
	}

	sort.SliceStable(g.Edges, func(i, j int) bool {
		if g.Edges[i].Caller != g.Edges[j].Caller {
			return g.Edges[i].Caller < g.Edges[j].Caller
		}
		return g.Edges[i].LineNumber < g.Edges[j].LineNumber
	})

	return g
}

// BuildFromProgram is a convenience wrapper around Build for callers that
// already have a parsed program.Program in hand.
func BuildFromProgram(p *program.Program) *Graph {
	return Build(p.Datapack, p.Functions)
}

// collectCallees walks a ParsedLine and its execute/schedule variants,
// invoking fn once per referenced callee function name (schedule targets
// count as calls for graph purposes, since they too must resolve to a
// present/valid function for the runtime trampoline to work).
func collectCallees(p parser.ParsedLine, fn func(callee string)) {
	switch p.Kind {
	case parser.KindFunctionCall:
		fn(p.FunctionCall.Callee)
	case parser.KindSchedule:
		if p.Schedule.Kind != parser.ScheduleClear {
			fn(p.Schedule.Callee)
		}
	case parser.KindExecuteRun:
		if p.ExecuteRun.Inner != nil {
			collectCallees(*p.ExecuteRun.Inner, fn)
		}
	}
}
