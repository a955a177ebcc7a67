// Package program ties the raw sourcepack model to the parser, producing
// the per-line ParsedLine results that callgraph and emitter both consume.
// Parsing happens exactly once per compilation; the result is immutable.
package program

import (
	"github.com/mcfdebug/mcfdebug/internal/parser"
	"github.com/mcfdebug/mcfdebug/internal/sourcepack"
)

// Line pairs a source line number with its parse result. Exactly one of
// Line/Err is meaningful: a line that failed to parse keeps Err set and a
// zero-value Line so the emitter can still synthesize a stub for it.
type Line struct {
	LineNumber int
	Line       parser.ParsedLine
	Err        *parser.InvalidCommand
}

// Function is a source function together with the parse of every line.
type Function struct {
	Name  sourcepack.FunctionName
	Lines []Line
}

// Program is the parsed form of an entire SourceDatapack.
type Program struct {
	Datapack  *sourcepack.SourceDatapack
	Functions map[string]*Function // keyed by FunctionName.String()
}

// Parse parses every line of every function in dp. It never fails: a line
// that does not parse becomes a Line with Err set, and its owning function
// is still present in the result (callgraph.Build derives per-function
// validity from these Err fields).
func Parse(dp *sourcepack.SourceDatapack) *Program {
	p := &Program{
		Datapack:  dp,
		Functions: make(map[string]*Function, len(dp.Functions)),
	}
	for name, sf := range dp.Functions {
		fn := &Function{Name: sf.Name, Lines: make([]Line, len(sf.Lines))}
		for i, sl := range sf.Lines {
			parsed, err := parser.ParseLine(sl.Raw, sl.Number)
			line := Line{LineNumber: sl.Number}
			if err != nil {
				if ic, ok := err.(*parser.InvalidCommand); ok {
					line.Err = ic
				} else {
					line.Err = &parser.InvalidCommand{LineNumber: sl.Number, Reason: err.Error()}
				}
			} else {
				line.Line = parsed
			}
			fn.Lines[i] = line
		}
		p.Functions[name] = fn
	}
	return p
}
