// Package emitter is the pure function (SourceDatapack, Options) -> Set of
// output files at the heart of the compiler. It performs no I/O: every
// input is already parsed and graph-analyzed by the time Emit runs, and
// every output is staged in memory for the writer package to drain.
package emitter

import (
	"strconv"
	"strings"

	"github.com/mcfdebug/mcfdebug/internal/callgraph"
	"github.com/mcfdebug/mcfdebug/internal/diagnostics"
	"github.com/mcfdebug/mcfdebug/internal/output"
	"github.com/mcfdebug/mcfdebug/internal/program"
	"github.com/mcfdebug/mcfdebug/internal/sourcepack"
	"github.com/mcfdebug/mcfdebug/internal/template"
)

// Options parameterizes one compilation, independent of the CLI-facing
// options.Options (which additionally carries filesystem paths and logging
// settings the emitter never needs).
type Options struct {
	Namespace    string // internal "ns", already validated
	DatapackName string
	Shadow       bool
	Adapter      bool // suppresses -if_not_adapter- chat messages
}

// Result is everything one Emit call produces: the staged file set plus
// the accumulated diagnostics (InvalidCommand, missing/invalid callee
// warnings) that §7 requires be surfaced without re-walking the call
// graph.
type Result struct {
	Files       *output.Set
	Diagnostics []diagnostics.Diagnostic
}

// breakpointSite records one "# breakpoint" line, in the order needed to
// build debug:resume's -resume_cases- deterministically.
type breakpointSite struct {
	origNs, origPath string
	line             int
}

// ctx is the compilation-wide emission state: the inputs, the staged file
// set, the base placeholder environment, and the breakpoint registry and
// diagnostics accumulated across every function.
type ctx struct {
	dp    *sourcepack.SourceDatapack
	prog  *program.Program
	graph *callgraph.Graph
	opts  Options
	files *output.Set

	baseEnv     template.Env
	ifNotAdapter string

	breakpoints []breakpointSite
	diags       []diagnostics.Diagnostic
}

// Emit runs the full per-function and global emission described in
// spec §4.3-4.5 and returns the complete output file set.
func Emit(dp *sourcepack.SourceDatapack, prog *program.Program, graph *callgraph.Graph, opts Options) (*Result, error) {
	ifNotAdapter := ""
	if opts.Adapter {
		ifNotAdapter = "# "
	}

	c := &ctx{
		dp:    dp,
		prog:  prog,
		graph: graph,
		opts:  opts,
		files: output.NewSet(),
		baseEnv: template.Env{
			"-ns-":             opts.Namespace,
			"-datapack-":       opts.DatapackName,
			"-if_not_adapter-": ifNotAdapter,
		},
		ifNotAdapter: ifNotAdapter,
	}

	names := dp.SortedNames()
	for _, name := range names {
		if err := c.emitFunction(name); err != nil {
			return nil, err
		}
	}

	if err := c.emitGlobals(); err != nil {
		return nil, err
	}

	c.collectCalleeDiagnostics()

	return &Result{Files: c.files, Diagnostics: c.diags}, nil
}

// collectCalleeDiagnostics adds one informational diagnostic per
// missing/invalid callee edge discovered during graph analysis, in
// (caller, line) order, so the CLI can report them without re-walking the
// graph itself.
func (c *ctx) collectCalleeDiagnostics() {
	for _, e := range c.graph.Edges {
		switch e.Status {
		case callgraph.Missing:
			c.diags = append(c.diags, diagnostics.Diagnostic{
				File: e.Caller, Line: e.LineNumber, Kind: diagnostics.KindMissingCallee,
				Message: "call to undefined function " + e.Callee,
			})
		case callgraph.CalleeInvalid:
			c.diags = append(c.diags, diagnostics.Diagnostic{
				File: e.Caller, Line: e.LineNumber, Kind: diagnostics.KindInvalidCallee,
				Message: "call to invalid function " + e.Callee,
			})
		}
	}
	for _, name := range c.dp.SortedNames() {
		for _, ic := range c.graph.InvalidCommands(name) {
			c.diags = append(c.diags, diagnostics.Diagnostic{
				File: name, Line: ic.LineNumber, Kind: diagnostics.KindInvalidCommand, Message: ic.Reason,
			})
		}
	}
}

// add renders tmpl with env merged onto the base env and stages it at
// path, wrapping any UnboundPlaceholderError as an emitter-level error the
// caller propagates (spec: aborts compilation).
func (c *ctx) add(path, source, templateName, tmpl string, env template.Env) error {
	rendered, err := template.Render(templateName, tmpl, c.baseEnv.With(env))
	if err != nil {
		return err
	}
	return c.files.Add(path, source, rendered)
}

// addRaw stages already-final text (built by concatenating multiple
// rendered fragments) without a further Render pass.
func (c *ctx) addRaw(path, source, text string) error {
	if template.ContainsUnresolvedPlaceholder(text) {
		return &template.UnboundPlaceholderError{Template: path, Names: []string{"(embedded)"}}
	}
	return c.files.Add(path, source, text)
}

// functionFilePath renders "data/<ns>/functions/<relPath>.mcfunction".
func functionFilePath(ns, relPath string) string {
	return "data/" + ns + "/functions/" + relPath + ".mcfunction"
}

// origTag turns a "/"-separated path into its "+"-joined tag-safe form.
func origTag(path string) string {
	return strings.ReplaceAll(path, "/", "+")
}

func itoa(n int) string { return strconv.Itoa(n) }
