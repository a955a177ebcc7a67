package emitter

import (
	"strings"
	"testing"

	"github.com/mcfdebug/mcfdebug/internal/callgraph"
	"github.com/mcfdebug/mcfdebug/internal/diagnostics"
	"github.com/mcfdebug/mcfdebug/internal/program"
	"github.com/mcfdebug/mcfdebug/internal/sourcepack"
	"github.com/mcfdebug/mcfdebug/internal/template"
	"github.com/stretchr/testify/require"
)

func mkDatapack(t *testing.T, fns map[string][]string) *sourcepack.SourceDatapack {
	t.Helper()
	dp := &sourcepack.SourceDatapack{
		Functions:         map[string]*sourcepack.SourceFunction{},
		DebugNamespace:    "debug",
		InternalNamespace: "mcfd",
	}
	for key, raws := range fns {
		name, err := sourcepack.ParseFunctionName(key)
		require.NoError(t, err)
		var lines []sourcepack.SourceLine
		for i, r := range raws {
			lines = append(lines, sourcepack.SourceLine{Number: i + 1, Raw: r})
		}
		dp.Functions[key] = &sourcepack.SourceFunction{Name: name, Lines: lines}
	}
	return dp
}

func compile(t *testing.T, fns map[string][]string, opts Options) *Result {
	t.Helper()
	dp := mkDatapack(t, fns)
	prog := program.Parse(dp)
	graph := callgraph.BuildFromProgram(prog)
	res, err := Emit(dp, prog, graph, opts)
	require.NoError(t, err)
	return res
}

func defaultOpts() Options {
	return Options{Namespace: "mcfd", DatapackName: "example"}
}

func TestEmit_SimpleFunctionProducesStartAndDispatcher(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"say hello"},
	}, defaultOpts())

	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/start.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/start_valid.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/return_or_exit.mcfunction"))
	require.NotNil(t, res.Files.Get("data/debug/functions/foo/main.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/scheduled.mcfunction"))
}

func TestEmit_ShadowStubForwardsToDebugDispatcher(t *testing.T) {
	opts := defaultOpts()
	opts.Shadow = true
	res := compile(t, map[string][]string{
		"foo:main": {"say hi"},
	}, opts)

	f := res.Files.Get("data/foo/functions/main.mcfunction")
	require.NotNil(t, f)
	require.Contains(t, string(f.Bytes), "function debug:foo/main")
}

func TestEmit_BreakpointSplitsIntoLineblocks(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"say a", "# breakpoint", "say b"},
	}, defaultOpts())

	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/3_0.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/breakpoint_2.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/continue_at_2.mcfunction"))

	block1 := string(res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction").Bytes)
	require.Contains(t, block1, "say a")
	require.Contains(t, block1, "function mcfd:foo/main/breakpoint_2")
}

func TestEmit_MissingCalleeProducesSkipCounterPathAndDiagnostic(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"function foo:gone"},
	}, defaultOpts())

	cc := res.Files.Get("data/mcfd/functions/foo/main/continue_current_iteration_at_1.mcfunction")
	require.NotNil(t, cc)
	require.Contains(t, string(cc.Bytes), "skipped_missing")

	var found bool
	for _, d := range res.Diagnostics {
		if d.Message == "call to undefined function foo:gone" {
			found = true
		}
	}
	require.True(t, found, "expected a missing-callee diagnostic")
}

func TestEmit_InvalidCommandRecordedAsDiagnostic(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"execute bogus run say x"},
	}, defaultOpts())

	var found bool
	for _, d := range res.Diagnostics {
		if d.Kind == diagnostics.KindInvalidCommand && d.Line == 1 {
			found = true
		}
	}
	require.True(t, found)
}

func TestEmit_PresentCallWiresContinueAtAndReturnOrExit(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"function foo:helper"},
		"foo:helper": {"say hi"},
	}, defaultOpts())

	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/continue_at_1.mcfunction"))
	ret := res.Files.Get("data/mcfd/functions/foo/helper/return_or_exit.mcfunction")
	require.NotNil(t, ret)
	require.Contains(t, string(ret.Bytes), "mcfd+foo+main+1")
}

func TestEmit_GlobalsPresent(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"say hi", "# breakpoint"},
	}, defaultOpts())

	for _, path := range []string{
		"data/debug/functions/install.mcfunction",
		"data/debug/functions/uninstall.mcfunction",
		"data/debug/functions/tick.mcfunction",
		"data/debug/functions/resume.mcfunction",
		"data/debug/functions/resume_immediate.mcfunction",
		"data/debug/functions/stop.mcfunction",
		"data/mcfd/functions/resume_self.mcfunction",
		"data/mcfd/functions/id/install.mcfunction",
		"data/mcfd/functions/id/allocate.mcfunction",
		"data/debug/functions/show_skipped.mcfunction",
		"data/debug/functions/show_scores.mcfunction",
		"data/mcfd/functions/skipped_functions_warning.mcfunction",
	} {
		require.NotNilf(t, res.Files.Get(path), "expected %s to be emitted", path)
	}

	install := res.Files.Get("data/debug/functions/install.mcfunction")
	require.Contains(t, string(install.Bytes), "mcfd+foo+main")
}

func TestEmit_SkipCounterLatchIsKeyedOnCallSiteNotCallee(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"function foo:gone"},
	}, defaultOpts())

	cc := res.Files.Get("data/mcfd/functions/foo/main/continue_current_iteration_at_1.mcfunction")
	require.NotNil(t, cc)
	body := string(cc.Bytes)

	callSiteHolder := "mcfd+foo+main+1"
	require.Contains(t, body, callSiteHolder+" mcfd_skipped matches 1..")
	require.Contains(t, body, "scoreboard players set "+callSiteHolder+" mcfd_skipped 1")
	require.NotContains(t, body, "mcfd_valid matches 1..",
		"guard must not key off the callee's static validity score, which never changes at runtime")
}

func TestEmit_ScheduleIssuesVanillaScheduleCommand(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"schedule function foo:cb 5t append"},
		"foo:cb":    {"say scheduled"},
	}, defaultOpts())

	block := res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction")
	require.NotNil(t, block)
	require.Contains(t, string(block.Bytes), "schedule function mcfd:foo/cb/scheduled 5t append")

	scheduled := res.Files.Get("data/mcfd/functions/foo/cb/scheduled.mcfunction")
	require.NotNil(t, scheduled)
	require.Contains(t, string(scheduled.Bytes), "schedule function mcfd:foo/cb/scheduled 1t replace")
	require.Contains(t, string(scheduled.Bytes), "function mcfd:foo/cb/start")
}

func TestEmit_ScheduleClearCancelsPending(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"schedule clear foo:cb"},
		"foo:cb":    {"say scheduled"},
	}, defaultOpts())

	block := res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction")
	require.NotNil(t, block)
	require.Contains(t, string(block.Bytes), "schedule clear mcfd:foo/cb/scheduled")
}

func TestEmit_MultiTargetExecuteAsDrivesIterateSameExecutor(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main":   {"execute as @e[type=sheep] run function foo:helper"},
		"foo:helper": {"say hi"},
	}, defaultOpts())

	block := res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction")
	require.NotNil(t, block)
	require.Contains(t, string(block.Bytes), "tag @e[type=sheep] add")
	require.Contains(t, string(block.Bytes), "function mcfd:foo/main/iterate_same_executor_1")

	driver := res.Files.Get("data/mcfd/functions/foo/main/iterate_same_executor_1.mcfunction")
	require.NotNil(t, driver)
	require.Contains(t, string(driver.Bytes), "iterate_same_executor_body_1")
	require.Contains(t, string(driver.Bytes), "continue_current_iteration_at_1")

	body := res.Files.Get("data/mcfd/functions/foo/main/iterate_same_executor_body_1.mcfunction")
	require.NotNil(t, body)
	require.Contains(t, string(body.Bytes), "function mcfd:foo/helper/start")

	cont := res.Files.Get("data/mcfd/functions/foo/main/continue_at_1.mcfunction")
	require.NotNil(t, cont)
	require.Contains(t, string(cont.Bytes), "function mcfd:foo/main/iterate_same_executor_1")
	require.NotContains(t, string(cont.Bytes), "continue_current_iteration_at_1")
}

func TestEmit_SingleTargetExecuteAsSkipsIterateDriver(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main":   {"execute as @e[type=sheep,limit=1] run function foo:helper"},
		"foo:helper": {"say hi"},
	}, defaultOpts())

	require.Nil(t, res.Files.Get("data/mcfd/functions/foo/main/iterate_same_executor_1.mcfunction"))
	cont := res.Files.Get("data/mcfd/functions/foo/main/continue_at_1.mcfunction")
	require.NotNil(t, cont)
	require.Contains(t, string(cont.Bytes), "continue_current_iteration_at_1")
}

func TestEmit_LeadingCommentBlockPreservedAsHeaderOnEveryFile(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"# copyright example authors", "# licensed under example", "say hello"},
	}, defaultOpts())

	for _, path := range []string{
		"data/mcfd/functions/foo/main/start.mcfunction",
		"data/mcfd/functions/foo/main/start_valid.mcfunction",
		"data/mcfd/functions/foo/main/1_0.mcfunction",
		"data/mcfd/functions/foo/main/return_or_exit.mcfunction",
		"data/debug/functions/foo/main.mcfunction",
	} {
		f := res.Files.Get(path)
		require.NotNilf(t, f, "expected %s to be emitted", path)
		require.Truef(t, strings.HasPrefix(string(f.Bytes), "# copyright example authors\n# licensed under example\n"),
			"expected %s to begin with the preserved header, got:\n%s", path, f.Bytes)
	}

	body := string(res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction").Bytes)
	require.Contains(t, body, "say hello")
}

func TestEmit_HeaderOnlyFunctionEmitsTrivialLineblock(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"# copyright example authors", ""},
	}, defaultOpts())

	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/start.mcfunction"))
	require.NotNil(t, res.Files.Get("data/mcfd/functions/foo/main/start_valid.mcfunction"))
	block := res.Files.Get("data/mcfd/functions/foo/main/1_0.mcfunction")
	require.NotNil(t, block)
	require.Contains(t, string(block.Bytes), "return_or_exit")
	require.Nil(t, res.Files.Get("data/mcfd/functions/foo/main/breakpoint_1.mcfunction"))
}

func TestEmit_GlobalFilesCarryNoFunctionHeader(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main": {"# copyright example authors", "say hi"},
	}, defaultOpts())

	install := res.Files.Get("data/debug/functions/install.mcfunction")
	require.NotNil(t, install)
	require.False(t, strings.HasPrefix(string(install.Bytes), "# copyright example authors"))
}

func TestEmit_NoUnresolvedPlaceholdersInAnyFile(t *testing.T) {
	res := compile(t, map[string][]string{
		"foo:main":   {"say a", "# breakpoint", "function foo:helper", "schedule function foo:cb 5t append"},
		"foo:helper": {"say hi"},
		"foo:cb":     {"say scheduled"},
	}, defaultOpts())

	for _, f := range res.Files.All() {
		require.Falsef(t, template.ContainsUnresolvedPlaceholder(string(f.Bytes)), "file %s has an unresolved placeholder:\n%s", f.Path, f.Bytes)
	}
}
