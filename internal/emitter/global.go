package emitter

import (
	"sort"
	"strings"

	"github.com/mcfdebug/mcfdebug/internal/callgraph"
	"github.com/mcfdebug/mcfdebug/internal/naming"
	"github.com/mcfdebug/mcfdebug/internal/template"
)

// emitGlobals emits the fixed, per-datapack files that are not tied to any
// one source function: install/uninstall, the tick chain, the
// resume/resume_immediate/stop family, the skipped-function reporting
// helpers, the entity-id allocator, and the session-exit handlers.
func (c *ctx) emitGlobals() error {
	ns := c.opts.Namespace

	if err := c.emitInstall(); err != nil {
		return err
	}
	if err := c.add("data/debug/functions/uninstall.mcfunction", "globals", "uninstall", template.Uninstall, nil); err != nil {
		return err
	}
	if err := c.emitTick(); err != nil {
		return err
	}
	if err := c.emitResumeFamily(); err != nil {
		return err
	}
	if err := c.add("data/debug/functions/stop.mcfunction", "globals", "stop", template.Stop, nil); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/abort_session.mcfunction", "globals", "abort_session", template.AbortSession, template.Env{"-reason-": "no live caller frame"}); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/on_session_exit_successful.mcfunction", "globals", "on_session_exit_successful", template.OnSessionExitSuccessful, nil); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/on_session_exit.mcfunction", "globals", "on_session_exit", template.OnSessionExit, nil); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/freeze_aec.mcfunction", "globals", "freeze_aec", template.FreezeAEC, nil); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/decrement_age.mcfunction", "globals", "decrement_age", template.DecrementAge, nil); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/animate_context.mcfunction", "globals", "animate_context", template.AnimateContext, nil); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/update_scores.mcfunction", "globals", "update_scores", template.UpdateScores, nil); err != nil {
		return err
	}
	if err := c.emitSkippedReporting(); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/id/install.mcfunction", "globals", "id_install", template.IDInstall, nil); err != nil {
		return err
	}
	if err := c.add("data/"+ns+"/functions/id/allocate.mcfunction", "globals", "id_allocate", template.IDAllocate, nil); err != nil {
		return err
	}
	return nil
}

// emitInstall renders debug:install and appends the -ns-_valid seed for
// every function the graph classified Valid, so the "start" dispatcher's
// "unless score <holder> -ns-_valid matches 1" guard sees exactly the
// functions that compiled cleanly.
func (c *ctx) emitInstall() error {
	ns := c.opts.Namespace
	rendered, err := template.Render("install", template.Install, c.baseEnv)
	if err != nil {
		return err
	}
	var seeds strings.Builder
	for _, name := range c.dp.SortedNames() {
		if c.graph.NodeValidity(name) != callgraph.Valid {
			continue
		}
		sf := c.dp.Functions[name]
		holder := naming.Tag(ns, sf.Name.Namespace, sf.Name.Path)
		seeds.WriteString("scoreboard players set " + holder + " " + ns + "_valid 1\n")
	}
	return c.addRaw("data/debug/functions/install.mcfunction", "globals", rendered+seeds.String())
}

// emitTick composes debug:tick from tick_start (which itself dispatches
// decrement_age against every pending schedule marker) and tick_end (which
// dispatches animate_context against every live breakpoint marker).
func (c *ctx) emitTick() error {
	start, err := template.Render("tick_start", template.TickStart, c.baseEnv)
	if err != nil {
		return err
	}
	end, err := template.Render("tick_end", template.TickEnd, c.baseEnv)
	if err != nil {
		return err
	}
	body := start + end
	return c.addRaw("data/debug/functions/tick.mcfunction", "globals", body)
}

// emitResumeFamily builds debug:resume (one ResumeCase per breakpoint,
// dispatching straight to that breakpoint's continue_at_<line>),
// debug:resume_immediate, <ns>:resume_self, and one per-breakpoint
// "resume_self_<line>" helper (ResumeSelf) that <ns>:resume_self
// dispatches to, all driven from the same c.breakpoints registry recorded
// during per-function emission.
func (c *ctx) emitResumeFamily() error {
	ns := c.opts.Namespace

	var resumeCases, selfCases strings.Builder
	for _, bp := range c.breakpoints {
		tag := naming.Tag(ns, bp.origNs, bp.origPath, itoa(bp.line))
		selfRel := bp.origNs + "/" + bp.origPath + "/resume_self_" + itoa(bp.line)

		caseEnv := c.baseEnv.With(template.Env{
			"-orig_ns-": bp.origNs,
			"-orig/fn-": bp.origPath,
			"-position-": itoa(bp.line),
			"-ns+orig_ns+orig+fn+line_number-": tag,
		})
		rendered, err := template.Render("resume_case", template.ResumeCase, caseEnv)
		if err != nil {
			return err
		}
		resumeCases.WriteString(rendered)

		selfCases.WriteString("execute if entity @s[tag=" + tag + "] run function " + naming.Ref(ns, selfRel) + "\n")

		env := template.Env{"-orig_ns-": bp.origNs, "-orig/fn-": bp.origPath, "-position-": itoa(bp.line)}
		if err := c.add(functionFilePath(ns, selfRel), "globals", "resume_self", template.ResumeSelf, env); err != nil {
			return err
		}
	}
	selfCases.WriteString("kill @s\n")

	rendered, err := template.Render("resume", template.Resume, c.baseEnv.With(template.Env{"-resume_cases-": resumeCases.String()}))
	if err != nil {
		return err
	}
	if err := c.addRaw("data/debug/functions/resume.mcfunction", "globals", rendered); err != nil {
		return err
	}

	immediateBody := "execute as @e[tag=" + ns + "_breakpoint,limit=1,sort=nearest] run function " + naming.Ref(ns, "resume_self") + "\n"
	if err := c.addRaw("data/debug/functions/resume_immediate.mcfunction", "globals", immediateBody); err != nil {
		return err
	}

	return c.addRaw("data/"+ns+"/functions/resume_self.mcfunction", "globals", selfCases.String())
}

// emitSkippedReporting emits debug:show_skipped, debug:show_scores, and
// ns:skipped_functions_warning, the last populated with the sorted, deduped
// names of every missing/invalid callee the graph found -- computed once
// at compile time since the set of missing/invalid callees never changes
// mid-session. show_skipped and show_scores are two of the five constant
// debug:-namespaced operator commands, alongside resume/stop/uninstall.
func (c *ctx) emitSkippedReporting() error {
	ns := c.opts.Namespace
	if err := c.add("data/debug/functions/show_skipped.mcfunction", "globals", "show_skipped", template.ShowSkipped, nil); err != nil {
		return err
	}
	if err := c.add("data/debug/functions/show_scores.mcfunction", "globals", "show_scores", template.ShowScores, nil); err != nil {
		return err
	}

	missing := map[string]bool{}
	invalid := map[string]bool{}
	for _, e := range c.graph.Edges {
		switch e.Status {
		case callgraph.Missing:
			missing[e.Callee] = true
		case callgraph.CalleeInvalid:
			invalid[e.Callee] = true
		}
	}
	env := template.Env{
		"-missing_functions-": joinSortedKeys(missing),
		"-invalid_functions-": joinSortedKeys(invalid),
	}
	return c.add("data/"+ns+"/functions/skipped_functions_warning.mcfunction", "globals", "skipped_functions_warning", template.SkippedFunctionsWarning, env)
}

func joinSortedKeys(m map[string]bool) string {
	if len(m) == 0 {
		return "none"
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
