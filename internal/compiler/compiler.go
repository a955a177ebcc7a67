// Package compiler wires the pipeline the CLI drives: load, parse, analyze,
// emit, write. It is the only package that sequences the others; each of
// them stays independently testable.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/mcfdebug/mcfdebug/internal/callgraph"
	"github.com/mcfdebug/mcfdebug/internal/diagnostics"
	"github.com/mcfdebug/mcfdebug/internal/emitter"
	"github.com/mcfdebug/mcfdebug/internal/options"
	"github.com/mcfdebug/mcfdebug/internal/output"
	"github.com/mcfdebug/mcfdebug/internal/program"
	"github.com/mcfdebug/mcfdebug/internal/sourcepack"
	"github.com/mcfdebug/mcfdebug/internal/template"
	"github.com/mcfdebug/mcfdebug/internal/writer"
)

// Result is what one Run produces: the diagnostics report and, when Run got
// far enough to emit, the staged file set (useful for --dry-run, where the
// CLI renders it as a tree instead of writing to disk).
type Result struct {
	Files  *output.Set
	Report diagnostics.Report
}

// Run executes the full pipeline against already-normalized, already
// validated opts. It never itself calls os.Exit; the CLI layer maps Result
// to a process exit code.
func Run(opts options.Options, log *slog.Logger) (*Result, error) {
	log.Info("loading source datapack", "input", opts.InputDir)
	dp, err := sourcepack.Load(opts.InputDir, opts.Namespace)
	if err != nil {
		res := &Result{}
		res.Report.Add(diagnostics.Diagnostic{
			File: opts.InputDir, Kind: diagnostics.KindInvalidInput, Message: err.Error(),
		})
		return res, nil
	}
	log.Info("loaded source functions", "count", len(dp.Functions))

	prog := program.Parse(dp)
	graph := callgraph.BuildFromProgram(prog)

	emitOpts := emitter.Options{
		Namespace:    opts.Namespace,
		DatapackName: opts.DatapackName,
		Shadow:       opts.Shadow,
		Adapter:      opts.Adapter,
	}
	log.Info("emitting instrumented datapack", "namespace", opts.Namespace)
	emitted, err := emitter.Emit(dp, prog, graph, emitOpts)
	if err != nil {
		res := &Result{}
		res.Report.Add(translateEmitError(err))
		return res, nil
	}

	res := &Result{Files: emitted.Files}
	for _, d := range emitted.Diagnostics {
		res.Report.Add(d)
	}
	log.Info("emission complete", "files", emitted.Files.Len(), "diagnostics", len(emitted.Diagnostics))
	return res, nil
}

// Write drains res.Files to opts.OutputDir, appending any write failure to
// res.Report so the CLI reports it uniformly with every other diagnostic.
func Write(res *Result, opts options.Options) {
	if res.Files == nil {
		return
	}
	if d := writer.Write(res.Files, opts.OutputDir, opts.DatapackName); d != nil {
		res.Report.Add(*d)
	}
}

// translateEmitError maps the emitter's internal error types to their
// diagnostics.Kind, since emitter.Emit itself stays free of any dependency
// on the diagnostics package's Kind taxonomy.
func translateEmitError(err error) diagnostics.Diagnostic {
	switch e := err.(type) {
	case *output.DuplicateOutputError:
		return diagnostics.Diagnostic{File: e.Path, Kind: diagnostics.KindDuplicateOutput, Message: e.Error()}
	case *template.UnboundPlaceholderError:
		return diagnostics.Diagnostic{File: e.Template, Kind: diagnostics.KindUnboundPlaceholder, Message: e.Error()}
	default:
		return diagnostics.Diagnostic{Kind: diagnostics.KindInvalidInput, Message: fmt.Sprintf("%v", err)}
	}
}
