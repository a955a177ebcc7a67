package emitter

import (
	"math"
	"strconv"
	"strings"

	"github.com/mcfdebug/mcfdebug/internal/callgraph"
	"github.com/mcfdebug/mcfdebug/internal/naming"
	"github.com/mcfdebug/mcfdebug/internal/parser"
	"github.com/mcfdebug/mcfdebug/internal/sourcepack"
	"github.com/mcfdebug/mcfdebug/internal/template"
)

// funcCtx carries the per-function state threaded through line-by-line
// expansion: the accumulated lineblock body, the block's starting line,
// and everything derived once from the function's identity.
type funcCtx struct {
	c        *ctx
	name     string // "origNs:origPath"
	origNs   string
	origPath string
	base     string // "origNs/origPath", the relative file-path stem
	env      template.Env
	header   string // source function's leading comment block, preserved verbatim, or ""

	edgeStatus map[int]callgraph.CalleeStatus // by calling line number

	blockStart int
	block      []string
}

// splitHeader extracts the leading contiguous run of blank lines and
// "#"-comment lines (other than "# breakpoint", which is never part of a
// header) from a function's source, returning that run's text verbatim
// (each line still newline-terminated) and how many source lines it
// consumes. A function with no such leading run returns ("", 0).
func splitHeader(lines []sourcepack.SourceLine) (string, int) {
	var b strings.Builder
	n := 0
	for _, sl := range lines {
		trimmed := strings.TrimSpace(sl.Raw)
		if trimmed == "# breakpoint" {
			break
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
		b.WriteString(sl.Raw)
		b.WriteString("\n")
		n++
	}
	return b.String(), n
}

// add renders a per-function-scoped template and stages it under path,
// prefixed with the source function's preserved header, if any.
func (fx *funcCtx) add(path, templateName, tmpl string, env template.Env) error {
	rendered, err := template.Render(templateName, tmpl, fx.c.baseEnv.With(env))
	if err != nil {
		return err
	}
	return fx.c.files.Add(path, fx.name, fx.header+rendered)
}

// addRaw stages already-final text under path, prefixed with the source
// function's preserved header, if any.
func (fx *funcCtx) addRaw(path, text string) error {
	if template.ContainsUnresolvedPlaceholder(text) {
		return &template.UnboundPlaceholderError{Template: path, Names: []string{"(embedded)"}}
	}
	return fx.c.files.Add(path, fx.name, fx.header+text)
}

// emitFunction expands one source function into its full file set: start,
// start_valid, every lineblock, every continue_at/continue_current_at,
// return_or_exit, scheduled, the debug dispatcher, and (if Shadow) the
// forwarding stub.
func (c *ctx) emitFunction(name string) error {
	sf := c.dp.Functions[name]
	pf := c.prog.Functions[name]
	ns := c.opts.Namespace

	fx := &funcCtx{
		c:          c,
		name:       name,
		origNs:     sf.Name.Namespace,
		origPath:   sf.Name.Path,
		base:       sf.Name.Namespace + "/" + sf.Name.Path,
		blockStart: 1,
		edgeStatus: make(map[int]callgraph.CalleeStatus),
	}
	fx.env = template.Env{
		"-orig_ns-":  fx.origNs,
		"-orig/fn-":  fx.origPath,
		"-orig+fn-":  origTag(fx.origPath),
	}
	for _, e := range c.graph.Edges {
		if e.Caller == name {
			fx.edgeStatus[e.LineNumber] = e.Status
		}
	}

	header, skip := splitHeader(sf.Lines)
	fx.header = header

	for i, sl := range sf.Lines {
		if i < skip {
			continue
		}
		pl := pf.Lines[i]
		if pl.Err != nil {
			fx.block = append(fx.block, "# invalid command at line "+itoa(sl.Number)+": "+pl.Err.Reason+"\n")
			continue
		}
		if err := fx.emitLine(sl, pl.Line); err != nil {
			return err
		}
	}
	if err := fx.flush("function " + naming.Ref(ns, fx.base, "return_or_exit") + "\n"); err != nil {
		return err
	}

	if err := fx.emitFixedFiles(); err != nil {
		return err
	}
	if err := fx.emitDispatcher(); err != nil {
		return err
	}
	return nil
}

// flush stages the current block as the lineblock file
// "<blockStart>_0", with tail appended to its body (tail is a full
// rendered "function ..." command line, or "" when the block's last line
// is itself the tail, as at a call site).
func (fx *funcCtx) flush(tail string) error {
	body := strings.Join(fx.block, "") + tail
	path := functionFilePath(fx.c.opts.Namespace, fx.base+"/"+itoa(fx.blockStart)+"_0")
	fx.block = nil
	return fx.addRaw(path, body)
}

func (fx *funcCtx) emitLine(sl sourcepack.SourceLine, pl parser.ParsedLine) error {
	ns := fx.c.opts.Namespace
	switch pl.Kind {
	case parser.KindBreakpoint:
		return fx.emitBreakpoint(sl.Number)
	case parser.KindFunctionCall:
		return fx.emitCall(sl.Number, nil, pl.FunctionCall.Callee)
	case parser.KindSchedule:
		return fx.emitSchedule(nil, pl.Schedule)
	case parser.KindExecuteRun:
		return fx.emitExecuteRun(sl.Number, pl.ExecuteRun)
	case parser.KindOpaque:
		fx.block = append(fx.block, renderOpaque(ns, pl.Opaque))
		return nil
	default:
		return nil
	}
}

func (fx *funcCtx) emitExecuteRun(line int, er parser.ExecuteRun) error {
	if er.Inner == nil {
		return nil
	}
	switch er.Inner.Kind {
	case parser.KindFunctionCall:
		return fx.emitCall(line, er.Chain, er.Inner.FunctionCall.Callee)
	case parser.KindSchedule:
		return fx.emitSchedule(er.Chain, er.Inner.Schedule)
	default:
		// Opaque (or a further nested ExecuteRun) inner: no control-flow
		// split, rendered as one wrapped command line.
		fx.block = append(fx.block, renderExecuteOpaque(fx.c.opts.Namespace, er, fx.block))
		return nil
	}
}

// renderOpaque renders an Opaque line, wrapping it in a context-restoring
// guard when it depends on the executor/position context (spec §3,
// ParsedLine.Opaque.NeedsContextRestore).
func renderOpaque(ns string, o parser.Opaque) string {
	if o.RawText == "" {
		return "\n"
	}
	if !o.NeedsContextRestore {
		return o.RawText + "\n"
	}
	return "execute if score @s " + ns + "_id matches 0.. run " + o.RawText + "\n"
}

// renderExecuteOpaque reconstructs "execute <chain> run <inner>" for an
// ExecuteRun whose inner does not itself trigger a control-flow split.
func renderExecuteOpaque(ns string, er parser.ExecuteRun, _ []string) string {
	chain := renderChain(er.Chain)
	inner := flattenInner(*er.Inner)
	if chain == "" {
		return inner + "\n"
	}
	return "execute " + chain + " run " + inner + "\n"
}

// flattenInner renders the innermost non-ExecuteRun command of a
// (possibly further nested) ExecuteRun chain as plain text, for the
// opaque-fallback case.
func flattenInner(p parser.ParsedLine) string {
	switch p.Kind {
	case parser.KindExecuteRun:
		chain := renderChain(p.ExecuteRun.Chain)
		if p.ExecuteRun.Inner == nil {
			return "execute " + chain
		}
		inner := flattenInner(*p.ExecuteRun.Inner)
		if chain == "" {
			return inner
		}
		return "execute " + chain + " run " + inner
	case parser.KindOpaque:
		return p.Opaque.RawText
	case parser.KindFunctionCall:
		return "function " + p.FunctionCall.Callee
	default:
		return ""
	}
}

// modifierKeyword reconstructs the source keyword(s) for one chain
// sub-clause, preserving the "positioned as"/"rotated as"/"facing entity"
// distinctions the parser makes explicit.
func modifierKeyword(m parser.Modifier) string {
	switch m.Kind {
	case parser.ModAs:
		return "as " + m.Text
	case parser.ModAt:
		return "at " + m.Text
	case parser.ModPositioned:
		return "positioned " + m.Text
	case parser.ModPositionedAs:
		return "positioned as " + m.Text
	case parser.ModRotated:
		return "rotated " + m.Text
	case parser.ModRotatedAs:
		return "rotated as " + m.Text
	case parser.ModFacing:
		return "facing " + m.Text
	case parser.ModFacingEntity:
		return "facing entity " + m.Text
	case parser.ModAnchored:
		return "anchored " + m.Text
	case parser.ModIn:
		return "in " + m.Text
	case parser.ModAlign:
		return "align " + m.Text
	case parser.ModIf:
		return "if " + m.Text
	case parser.ModUnless:
		return "unless " + m.Text
	case parser.ModStore:
		return "store " + m.Text
	default:
		return m.Text
	}
}

// renderChain reconstructs the ordered sub-clause text of an execute chain
// (without the leading "execute" keyword or the trailing "run").
func renderChain(chain []parser.Modifier) string {
	parts := make([]string, 0, len(chain))
	for _, m := range chain {
		parts = append(parts, modifierKeyword(m))
	}
	return strings.Join(parts, " ")
}

// chainAsSelector returns the selector text of the chain's first
// executor-changing ("as") sub-clause, or "" if none.
func chainAsSelector(chain []parser.Modifier) string {
	for _, m := range chain {
		if m.IsExecutorChanging() {
			return m.Text
		}
	}
	return ""
}

// isIteratingSelector heuristically classifies a selector as
// potentially-multi-target: an @e/@a selector not pinned to limit=1.
func isIteratingSelector(sel string) bool {
	if sel == "" {
		return false
	}
	if !strings.HasPrefix(sel, "@e") && !strings.HasPrefix(sel, "@a") {
		return false
	}
	return !strings.Contains(sel, "limit=1")
}

// emitBreakpoint terminates the current block with a call into a
// per-site "set_breakpoint" helper, records the breakpoint for
// debug:resume's dispatch table, and starts a new block at line+1 behind
// a trivial "continue_at_<line>" forwarder.
func (fx *funcCtx) emitBreakpoint(line int) error {
	ns := fx.c.opts.Namespace
	bpRel := fx.base + "/breakpoint_" + itoa(line)
	env := fx.env.With(template.Env{"-line_number-": itoa(line)})
	if err := fx.add(functionFilePath(ns, bpRel), "set_breakpoint", template.SetBreakpoint, env); err != nil {
		return err
	}
	fx.block = append(fx.block, "function "+naming.Ref(ns, bpRel)+"\n")
	if err := fx.flush(""); err != nil {
		return err
	}

	fx.c.breakpoints = append(fx.c.breakpoints, breakpointSite{fx.origNs, fx.origPath, line})

	next := line + 1
	contPath := functionFilePath(ns, fx.base+"/continue_at_"+itoa(line))
	contBody := "function " + naming.Ref(ns, fx.base, itoa(next)+"_0") + "\n"
	if err := fx.addRaw(contPath, contBody); err != nil {
		return err
	}
	fx.blockStart = next
	return nil
}

// callSiteTag is the "+"-joined tag identifying one function-call site,
// shared between the summon at the call site and the
// selectors that later restore or dispatch to it.
func (fx *funcCtx) callSiteTag(line int) string {
	return naming.Tag(fx.c.opts.Namespace, fx.origNs, fx.origPath, itoa(line))
}

// emitCall expands one function-call site (bare or execute-chain-wrapped)
// per spec §4.3's "Execute-chain expansion": a context-entity summon
// (preserving executor/position for the eventual return), the depth
// increment, and the call itself -- or, for a missing/invalid callee, the
// idempotent skip-counter path instead.
func (fx *funcCtx) emitCall(line int, chain []parser.Modifier, calleeStr string) error {
	ns := fx.c.opts.Namespace
	callee, err := sourcepack.ParseFunctionName(calleeStr)
	if err != nil {
		callee = sourcepack.FunctionName{Namespace: "invalid", Path: "invalid"}
	}
	status := fx.edgeStatus[line]

	switch status {
	case callgraph.Missing, callgraph.CalleeInvalid:
		counter := "skipped_missing"
		if status == callgraph.CalleeInvalid {
			counter = "skipped_invalid"
		}
		holder := fx.callSiteTag(line)
		next := line + 1
		ccPath := functionFilePath(ns, fx.base+"/continue_current_iteration_at_"+itoa(line))
		env := fx.env.With(template.Env{
			"-fn_score_holder-": holder,
			"-position-":        itoa(next) + "_0",
			"-skip_counter-":    counter,
		})
		if err := fx.add(ccPath, "continue_current_iteration_at_pos", template.ContinueCurrentIterationAtPos, env); err != nil {
			return err
		}
		fx.block = append(fx.block, "function "+naming.Ref(ns, fx.base, "continue_current_iteration_at_"+itoa(line))+"\n")
		if err := fx.flush(""); err != nil {
			return err
		}
		fx.blockStart = next
		return nil

	default: // Present
		return fx.emitPresentCall(line, chain, callee)
	}
}

// emitPresentCall expands one live call site. A plain or limit=1 execute
// chain summons a single context entity and calls straight through. An
// "as @e[...]"/"as @a[...]" chain with no limit=1 cannot be dispatched the
// same way: vanilla's own implicit per-entity repetition of "execute as
// <selector> run ..." would fire the callee for every match in one command,
// with no chance to notice a breakpoint fired by an earlier match before
// moving to the next. Those chains are instead driven one entity at a time
// by iterate_same_executor, re-entered from continue_at_<line> after each
// entity's frame returns, until none remain.
func (fx *funcCtx) emitPresentCall(line int, chain []parser.Modifier, callee sourcepack.FunctionName) error {
	ns := fx.c.opts.Namespace
	tag := fx.callSiteTag(line)
	prefix := renderChain(chain)
	if prefix != "" {
		prefix = "execute " + prefix + " run "
	}

	selector := chainAsSelector(chain)
	iterating := isIteratingSelector(selector)
	iterRel := fx.base + "/iterate_same_executor_" + itoa(line)

	if iterating {
		pendingTag := naming.Tag(ns, fx.origNs, fx.origPath, "iter", itoa(line))
		bodyRel := fx.base + "/iterate_same_executor_body_" + itoa(line)

		driverEnv := fx.env.With(template.Env{"-pending_tag-": pendingTag, "-position-": itoa(line)})
		if err := fx.add(functionFilePath(ns, iterRel), "iterate_same_executor", template.IterateSameExecutor, driverEnv); err != nil {
			return err
		}
		bodyEnv := fx.env.With(template.Env{
			"-pending_tag-": pendingTag,
			"-call_tag-":    tag,
			"-call_ns-":     callee.Namespace,
			"-call/fn-":     callee.Path,
		})
		if err := fx.add(functionFilePath(ns, bodyRel), "iterate_same_executor_body", template.IterateSameExecutorBody, bodyEnv); err != nil {
			return err
		}

		fx.block = append(fx.block, prefix+"tag "+selector+" add "+pendingTag+"\n")
		fx.block = append(fx.block, "function "+naming.Ref(ns, iterRel)+"\n")
	} else {
		summon := prefix + `summon area_effect_cloud ~ ~ ~ {Tags:["` + ns + `_new","` + ns + `","` + ns + `_function_call","` + tag + `","` + ns + `_active"]}` + "\n"
		fx.block = append(fx.block, summon)
		fx.block = append(fx.block, "execute as @e[tag="+ns+"_new,limit=1] run function "+naming.Ref(ns, "id/allocate")+"\n")
		fx.block = append(fx.block, "tag @e[tag="+ns+"_new,limit=1] remove "+ns+"_new\n")

		callBody, err := template.Render("call_function", template.CallFunction, fx.c.baseEnv.With(template.Env{
			"-call_ns-": callee.Namespace,
			"-call/fn-": callee.Path,
		}))
		if err != nil {
			return err
		}
		for _, l := range strings.Split(strings.TrimRight(callBody, "\n"), "\n") {
			if prefix != "" {
				l = prefix + l
			}
			fx.block = append(fx.block, l+"\n")
		}
	}

	if err := fx.flush(""); err != nil {
		return err
	}

	next := line + 1
	contPath := functionFilePath(ns, fx.base+"/continue_at_"+itoa(line))
	var contBody string
	if iterating {
		// The just-returned entity's frame is torn down, then control hands
		// back to the driver to try the next pending entity (or, once none
		// remain, straight to continue_current_iteration_at_<line>).
		contBody = "execute as @e[tag=" + ns + ",tag=" + tag + ",limit=1] run kill @s\n" +
			"function " + naming.Ref(ns, iterRel) + "\n"
	} else {
		contBody = "execute as @e[tag=" + ns + ",tag=" + tag + ",limit=1] run function " +
			naming.Ref(ns, fx.base, "continue_current_iteration_at_"+itoa(line)) + "\n" +
			"execute as @e[tag=" + ns + ",tag=" + tag + ",limit=1] run kill @s\n"
	}
	if err := fx.addRaw(contPath, contBody); err != nil {
		return err
	}

	ccPath := functionFilePath(ns, fx.base+"/continue_current_iteration_at_"+itoa(line))
	ccBody := "function " + naming.Ref(ns, fx.base, itoa(next)+"_0") + "\n"
	if err := fx.addRaw(ccPath, ccBody); err != nil {
		return err
	}

	fx.blockStart = next
	return nil
}

// minInt32AgeConstant is the base a schedule marker's Age and WaitTime
// are offset from: emitSchedule sets both to "-2147483648 + ticks" and
// Duration to ticks.
const minInt32AgeConstant = math.MinInt32

// emitSchedule appends a schedule expansion inline (schedule commands do
// not split the lineblock: nothing suspends synchronously waiting on
// them). The callee's "scheduled" trampoline is not emitted here:
// emitFixedFiles emits one for every function regardless of whether it is
// ever the target of a schedule command.
func (fx *funcCtx) emitSchedule(chain []parser.Modifier, s parser.Schedule) error {
	callee, err := sourcepack.ParseFunctionName(s.Callee)
	if err != nil {
		return nil
	}
	prefix := renderChain(chain)
	if prefix != "" {
		prefix = "execute " + prefix + " run "
	}

	env := template.Env{
		"-schedule_ns-": callee.Namespace,
		"-schedule/fn-": callee.Path,
		"-schedule+fn-": origTag(callee.Path),
	}

	var tmplName, tmpl string
	switch s.Kind {
	case parser.ScheduleClear:
		tmplName, tmpl = "schedule_clear", template.ScheduleClear
	case parser.ScheduleReplace:
		env["-ticks-"] = strconv.Itoa(s.Ticks)
		env["-age-"] = strconv.Itoa(minInt32AgeConstant + s.Ticks)
		env["-duration-"] = strconv.Itoa(s.Ticks)
		env["-waittime-"] = strconv.Itoa(minInt32AgeConstant + s.Ticks)
		tmplName, tmpl = "schedule_replace", template.ScheduleReplace
	default:
		env["-ticks-"] = strconv.Itoa(s.Ticks)
		env["-age-"] = strconv.Itoa(minInt32AgeConstant + s.Ticks)
		env["-duration-"] = strconv.Itoa(s.Ticks)
		env["-waittime-"] = strconv.Itoa(minInt32AgeConstant + s.Ticks)
		tmplName, tmpl = "schedule_append", template.ScheduleAppend
	}

	rendered, err := template.Render(tmplName, tmpl, fx.c.baseEnv.With(env))
	if err != nil {
		return err
	}
	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		if prefix != "" {
			line = prefix + line
		}
		fx.block = append(fx.block, line+"\n")
	}
	return nil
}

// emitFixedFiles emits the always-present per-function files that do not
// depend on line-by-line splitting: start, start_valid, scheduled, and
// return_or_exit (via emitReturnOrExit).
func (fx *funcCtx) emitFixedFiles() error {
	ns := fx.c.opts.Namespace
	holder := naming.Tag(ns, fx.origNs, fx.origPath)

	startBody := "execute unless score " + holder + " " + ns + "_valid matches 1 run tellraw @a {\"text\":\"[" + fx.c.opts.DatapackName + "] cannot start " +
		fx.origNs + ":" + fx.origPath + ": invalid function\",\"color\":\"red\"}\n" +
		"execute unless score " + holder + " " + ns + "_valid matches 1 run function " + naming.Ref(fx.c.dp.DebugNamespace, "stop") + "\n" +
		"execute if score " + holder + " " + ns + "_valid matches 1 run function " + naming.Ref(ns, fx.base, "start_valid") + "\n"
	if err := fx.addRaw(functionFilePath(ns, fx.base+"/start"), startBody); err != nil {
		return err
	}

	startValidBody := "function " + naming.Ref(ns, fx.base, "1_0") + "\n"
	if err := fx.addRaw(functionFilePath(ns, fx.base+"/start_valid"), startValidBody); err != nil {
		return err
	}

	scheduledEnv := fx.env
	if err := fx.add(functionFilePath(ns, fx.base+"/scheduled"), "scheduled", template.Scheduled, scheduledEnv); err != nil {
		return err
	}

	return fx.emitReturnOrExit()
}

// emitReturnOrExit builds the dispatch table of every live call site that
// calls into this function (from callgraph.Graph.Edges, already global
// and deterministically ordered) and renders return_or_exit: pop the
// frame, hand control back to whichever caller's continue_at_<pos> is
// tagged onto the still-live context entity, or tear the session down if
// none is live.
func (fx *funcCtx) emitReturnOrExit() error {
	ns := fx.c.opts.Namespace
	var cases strings.Builder
	for _, e := range fx.c.graph.Edges {
		if e.Callee != fx.name || e.Status != callgraph.Present {
			continue
		}
		// Only direct (optionally execute-wrapped) function calls get a
		// continue_at_<line> file; schedule and nested-execute references
		// are graph edges too but have nothing to return into.
		pl := fx.c.prog.Functions[e.Caller].Lines[e.LineNumber-1].Line
		if pl.Kind == parser.KindExecuteRun && pl.ExecuteRun.Inner != nil {
			pl = *pl.ExecuteRun.Inner
		}
		if pl.Kind != parser.KindFunctionCall {
			continue
		}
		callerNs, callerPath := splitName(e.Caller)
		tag := naming.Tag(ns, callerNs, callerPath, itoa(e.LineNumber))
		cases.WriteString("execute store success score returned " + ns + "_global as @e[tag=" + ns + "_function_call,tag=" + tag + ",limit=1] run function " +
			naming.Ref(ns, callerNs, callerPath, "continue_at_"+itoa(e.LineNumber)) + "\n")
		cases.WriteString("execute as @e[tag=" + ns + "_function_call,tag=" + tag + ",limit=1] run kill @s\n")
	}

	body := "scoreboard players remove depth " + ns + "_global 1\n" +
		"scoreboard players set returned " + ns + "_global 0\n" +
		cases.String() +
		"execute unless score returned " + ns + "_global matches 1 if score depth " + ns + "_global matches 0 run function " + naming.Ref(ns, "on_session_exit_successful") + "\n" +
		"execute unless score returned " + ns + "_global matches 1 if score depth " + ns + "_global matches 1.. run function " + naming.Ref(ns, "on_session_exit") + "\n"

	return fx.addRaw(functionFilePath(ns, fx.base+"/return_or_exit"), body)
}

// splitName splits a "ns:path" fully-qualified function name back into
// its parts; used when walking callgraph.Graph.Edges, which stores names
// as strings.
func splitName(s string) (string, string) {
	fn, err := sourcepack.ParseFunctionName(s)
	if err != nil {
		return s, ""
	}
	return fn.Namespace, fn.Path
}

// emitDispatcher emits "debug:<origNs>/<origPath>": the entry point
// call sites in the original datapack are expected to be redirected to
// (directly, or via the shadow stub), guarding against starting a new
// session while one is already suspended.
func (fx *funcCtx) emitDispatcher() error {
	ns := fx.c.opts.Namespace
	body := "execute if score breakpoint " + ns + "_global matches 1 run tellraw @a {\"text\":\"[" + fx.c.opts.DatapackName + "] cannot start, session suspended\",\"color\":\"red\"}\n" +
		"execute unless score breakpoint " + ns + "_global matches 1 run function " + naming.Ref(ns, fx.base, "start") + "\n"
	dispatchPath := "data/" + fx.c.dp.DebugNamespace + "/functions/" + fx.base + ".mcfunction"
	if err := fx.addRaw(dispatchPath, body); err != nil {
		return err
	}

	if fx.c.opts.Shadow {
		shadowBody := "function " + naming.Ref(fx.c.dp.DebugNamespace, fx.base) + "\n"
		shadowPath := functionFilePath(fx.origNs, fx.origPath)
		if err := fx.addRaw(shadowPath, shadowBody); err != nil {
			return err
		}
	}
	return nil
}
