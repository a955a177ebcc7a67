package template

// Install is "ns:id/install"'s caller: debug:install. It declares every
// scoreboard objective the runtime needs, seeds the constant holders, and
// hands off to the entity-id allocator.
const Install = `scoreboard objectives add -ns-_Age dummy
scoreboard objectives add -ns-_Duration dummy
scoreboard objectives add -ns-_WaitTime dummy
scoreboard objectives add -ns-_anchor dummy
scoreboard objectives add -ns-_depth dummy
scoreboard objectives add -ns-_global dummy
scoreboard objectives add -ns-_skipped dummy
scoreboard objectives add -ns-_tmp dummy
scoreboard objectives add -ns-_valid dummy
scoreboard objectives add -ns-_constant dummy
scoreboard objectives add -ns-_scores dummy
scoreboard objectives add -ns-_version dummy
scoreboard players set 1 -ns-_constant 1
scoreboard players set 88 -ns-_constant 88
scoreboard players set breakpoint -ns-_global 0
scoreboard players set depth -ns-_global 0
scoreboard players set skipped_missing -ns-_global 0
scoreboard players set skipped_invalid -ns-_global 0
function -ns-:id/install
tellraw @a {"text":"[-datapack-] debug datapack installed","color":"green"}
`

// Uninstall tears down every objective Install created and kills any marker
// entity the session left behind.
const Uninstall = `kill @e[tag=-ns-]
scoreboard objectives remove -ns-_Age
scoreboard objectives remove -ns-_Duration
scoreboard objectives remove -ns-_WaitTime
scoreboard objectives remove -ns-_anchor
scoreboard objectives remove -ns-_depth
scoreboard objectives remove -ns-_global
scoreboard objectives remove -ns-_skipped
scoreboard objectives remove -ns-_tmp
scoreboard objectives remove -ns-_valid
scoreboard objectives remove -ns-_constant
scoreboard objectives remove -ns-_scores
scoreboard objectives remove -ns-_version
tellraw @a {"text":"[-datapack-] debug datapack uninstalled","color":"gray"}
`

// TickStart runs every game tick before anything else in the debug
// namespace's tick chain: for each pending schedule marker it invokes
// decrement_age with @s bound to that marker, the same as-each pattern
// TickEnd uses below to invoke animate_context against breakpoint markers.
const TickStart = `execute as @e[tag=-ns-_schedule] run function -ns-:decrement_age
`

// TickEnd runs every game tick after the rest of the tick chain: it is
// where the animate_context template is invoked so frozen marker entities
// stay visible to the operator while a session is suspended.
const TickEnd = `execute as @e[tag=-ns-_breakpoint] run function -ns-:animate_context
`

// Resume is "debug:resume". -resume_cases- is the concatenation, across
// every instrumented function and line, of one generated dispatch line per
// live breakpoint marker tag; ResumeCase below renders each one.
const Resume = `execute unless score breakpoint -ns-_global matches 1 run tellraw @a {"text":"[-datapack-] not suspended","color":"gray"}
execute if score breakpoint -ns-_global matches 1 run scoreboard players set breakpoint -ns-_global 0
-resume_cases-
-if_not_adapter-tellraw @a {"text":"[-datapack-] resumed","color":"green"}
`

// ResumeCase is instantiated once per breakpoint marker tag and appended
// into -resume_cases-.
const ResumeCase = `execute as @e[tag=-ns-_breakpoint,tag=-ns+orig_ns+orig+fn+line_number-] run function -ns-:-orig_ns-/-orig/fn-/continue_at_-position-
execute as @e[tag=-ns-_breakpoint,tag=-ns+orig_ns+orig+fn+line_number-] run kill @s
`

// ResumeSelf resumes only the marker entity the command was run as
// (@s-scoped), used by the resume_immediate fast path.
const ResumeSelf = `scoreboard players set breakpoint -ns-_global 0
function -ns-:-orig_ns-/-orig/fn-/continue_at_-position-
kill @s
`

// ResumeImmediate is invoked when a breakpoint fires for a session that is
// being driven non-interactively (e.g. step-across-tick from an adapter):
// it resumes the frame without the usual chat round trip.
const ResumeImmediate = `execute as @e[tag=-ns-_breakpoint,limit=1,sort=nearest] run function -ns-:resume_self
`

// Stop is "debug:stop": it aborts whatever is currently suspended or
// running and leaves every objective in place so the session can restart.
const Stop = `kill @e[tag=-ns-_breakpoint]
kill @e[tag=-ns-_function_call]
kill @e[tag=-ns-_schedule]
scoreboard players set breakpoint -ns-_global 0
scoreboard players set depth -ns-_global 0
-if_not_adapter-tellraw @a {"text":"[-datapack-] session stopped","color":"red"}
`

// AbortSession reports why a session is being aborted and stops it via
// debug:stop: it is the failure twin of OnSessionExit. The emitter stages it
// as <ns>:abort_session with a fixed -reason-; no generated file calls it.
const AbortSession = `tellraw @a {"text":"[-datapack-] session aborted: -reason-","color":"red"}
function debug:stop
`

// OnSessionExitSuccessful fires when the outermost instrumented function
// returns with a live caller chain all the way back to the original
// (non-debug) call site, i.e. nothing is left suspended.
const OnSessionExitSuccessful = `scoreboard players set depth -ns-_global 0
`

// OnSessionExit is the generic end-of-call-stack handler, invoked by
// return_or_exit when no caller frame took the return and depth is still 1
// or more after the decrement (depth 0 goes to OnSessionExitSuccessful
// directly).
const OnSessionExit = `execute if score depth -ns-_global matches 0 run function -ns-:on_session_exit_successful
`
