// Command mcfdebug compiles a Minecraft data pack's .mcfunction sources
// into an instrumented copy that adds breakpoints, step/resume control, and
// call-stack reporting, using nothing beyond commands vanilla survival
// already understands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcfdebug/mcfdebug/internal/compiler"
	"github.com/mcfdebug/mcfdebug/internal/diagnostics"
	"github.com/mcfdebug/mcfdebug/internal/logging"
	"github.com/mcfdebug/mcfdebug/internal/options"
	"github.com/mcfdebug/mcfdebug/internal/writer"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options.Options
	var dryRun bool
	var noColor bool

	cmd := &cobra.Command{
		Use:           "mcfdebug",
		Short:         "Compile a data pack into a breakpoint-instrumented debug copy",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			return execute(&opts, dryRun, noColor)
		},
	}

	cmd.Flags().StringVarP(&opts.InputDir, "input", "i", "", "input data pack directory (required)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "output directory for the instrumented data pack (required)")
	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", options.DefaultNamespace, "internal namespace for generated bookkeeping (max 7 chars)")
	cmd.Flags().BoolVar(&opts.Shadow, "shadow", false, "also write forwarding stubs at the original function paths")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", defaultLogLevel(), "error|warn|info|debug|trace (env LOG_LEVEL, flag takes precedence)")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file instead of stderr")
	cmd.Flags().BoolVar(&opts.Adapter, "adapter", false, "suppress interactive chat messages, for use behind a debug adapter")
	cmd.Flags().StringVar(&opts.DatapackName, "name", "", "datapack name used in chat messages (default \"mcfdebug\")")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the file tree that would be written instead of writing it")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colorized diagnostic output")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mcfdebug:", err)
		return 1
	}
	return exitCode
}

// version is what --version prints; builds can embed a release string with
// -ldflags "-X main.version=<v>".
var version = "dev"

// exitCode is set by execute since cobra's RunE only propagates an error,
// not an arbitrary process exit code.
var exitCode int

// defaultLogLevel is the --log-level flag's default value: LOG_LEVEL if set,
// otherwise "info". Cobra only falls back to a flag's default when the flag
// itself is not passed on the command line, so this keeps the CLI flag
// taking precedence over the environment.
func defaultLogLevel() string {
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		return v
	}
	return "info"
}

func execute(opts *options.Options, dryRun, noColor bool) error {
	opts.Normalize()
	if d := opts.Validate(); d != nil {
		var report diagnostics.Report
		report.Add(*d)
		report.WriteTo(os.Stderr, diagnostics.ShouldColorize(noColor))
		exitCode = report.ExitCode()
		return nil
	}

	log, err := logging.New(opts.LogLevel, opts.LogFile)
	if err != nil {
		var report diagnostics.Report
		report.Add(diagnostics.Diagnostic{File: opts.LogFile, Kind: diagnostics.KindInvalidInput, Message: err.Error()})
		report.WriteTo(os.Stderr, diagnostics.ShouldColorize(noColor))
		exitCode = report.ExitCode()
		return nil
	}

	res, err := compiler.Run(*opts, log)
	if err != nil {
		return err
	}

	if res.Files != nil {
		if dryRun {
			if err := writer.DryRunTree(os.Stdout, res.Files, opts.DatapackName); err != nil {
				return err
			}
		} else {
			compiler.Write(res, *opts)
		}
	}

	res.Report.WriteTo(os.Stderr, diagnostics.ShouldColorize(noColor))
	exitCode = res.Report.ExitCode()
	return nil
}
