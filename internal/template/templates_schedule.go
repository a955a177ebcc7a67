package template

// scheduleTag is the "+"-joined tag identifying a scheduled call's (ns, fn)
// key, shared by every schedule-family template.
const scheduleTag = `-ns-+schedule+-schedule_ns-+-schedule+fn-`

// Schedule issues the real vanilla "schedule function" command that will
// invoke the callee's "scheduled" trampoline -ticks- ticks from now, and
// summons the accompanying area_effect_cloud marker that stands in for the
// pending call so the session can show it as outstanding. -age-, -duration-
// and -waittime- are pre-computed by the emitter from -ticks- so the game's
// own per-tick age-increment on area_effect_cloud entities reaches the
// terminal value at the same tick the schedule command fires on.
const Schedule = `schedule function -ns-:-schedule_ns-/-schedule/fn-/scheduled -ticks-t append
summon area_effect_cloud ~ ~ ~ {Age:-age-,Duration:-duration-,WaitTime:-waittime-,Tags:["-ns-","-ns-_schedule","` + scheduleTag + `"]}
`

// ScheduleAppend never disturbs an existing marker or schedule entry for
// the same (ns, fn) key, so repeated "schedule ... append" calls accumulate
// independent trampoline firings.
const ScheduleAppend = Schedule

// ScheduleReplace evaluates the existing-marker selector exactly once: a
// single execute store success sets schedule_success, then the prior
// schedule entry and marker are cleared and replaced.
const ScheduleReplace = `scoreboard players set schedule_success -ns-_global 0
execute store success score schedule_success -ns-_global run kill @e[tag=-ns-_schedule,tag=` + scheduleTag + `,limit=1]
schedule function -ns-:-schedule_ns-/-schedule/fn-/scheduled -ticks-t replace
summon area_effect_cloud ~ ~ ~ {Age:-age-,Duration:-duration-,WaitTime:-waittime-,Tags:["-ns-","-ns-_schedule","` + scheduleTag + `"]}
`

// ScheduleClear cancels the pending "scheduled" invocation and kills any
// marker for the (ns, fn) key. Both are no-ops if nothing was pending.
const ScheduleClear = `schedule clear -ns-:-schedule_ns-/-schedule/fn-/scheduled
kill @e[tag=-ns-_schedule,tag=` + scheduleTag + `]
`

// Scheduled is the per-callee trampoline the vanilla "schedule function"
// command set up by Schedule/ScheduleAppend/ScheduleReplace invokes at the
// requested tick. It gates on the global breakpoint flag: if a session is
// suspended elsewhere, the callee's own turn is deferred by one tick
// instead of being skipped.
const Scheduled = `execute if score breakpoint -ns-_global matches 1 run schedule function -ns-:-orig_ns-/-orig/fn-/scheduled 1t replace
execute unless score breakpoint -ns-_global matches 1 run function -ns-:-orig_ns-/-orig/fn-/start
`

// CallFunction is the common call-site body shared by every instrumented
// function call: increment depth and hand off to the callee's start. Used
// as the tail of both the plain and execute-chain-wrapped call-site forms,
// split back into individual lines so each can carry its own "execute
// <chain> run" prefix.
const CallFunction = `scoreboard players add depth -ns-_global 1
function -ns-:-call_ns-/-call/fn-/start
`
