package template

// breakpointTag is the "+"-joined tag identifying one breakpoint call site.
const breakpointTag = `-ns-+-orig_ns-+-orig+fn-+-line_number-`

// SetBreakpoint is appended to the end of the lineblock preceding a
// "# breakpoint" line. It sets the global suspend flag, summons the marker
// entity that represents the suspended frame, freezes every other marker,
// reports skipped-function counters, and tells the operator how to
// resume or stop.
const SetBreakpoint = `scoreboard players set breakpoint -ns-_global 1
summon area_effect_cloud ~ ~ ~ {Tags:["-ns-","-ns-_breakpoint","` + breakpointTag + `"],CustomName:'{"text":"-orig_ns-:-orig/fn-:-line_number-"}',CustomNameVisible:1b}
execute as @e[tag=-ns-_breakpoint,tag=` + breakpointTag + `,limit=1] at @s run tp @s ~ ~ ~
function -ns-:freeze_aec
function debug:show_skipped
function -ns-:skipped_functions_warning
-if_not_adapter-tellraw @a ["[-datapack-] breakpoint hit at -orig_ns-:-orig/fn-:-line_number-. Run ",{"text":"/function debug:resume","color":"aqua"}," to continue or ",{"text":"/function debug:stop","color":"red"}," to end the session."]
`

// ContinueCurrentIterationAtPos is the skipped-callee path. -fn_score_holder-
// here is the call site's own tag (not the callee's), latched on the
// otherwise-unused -ns-_skipped objective: the guard only reads as
// idempotent -- "increment at most once per call site per session" -- when
// the holder and the objective it latches are both call-site-scoped and
// actually mutated by this template. Binding it to the callee's -ns-_valid
// score instead would be a tautology, since that score is a compile-time
// constant seeded once in debug:install and never changes at runtime.
// -ns-_skipped is removed and re-added by uninstall/install, so the latch
// resets with every reinstall.
const ContinueCurrentIterationAtPos = `execute unless score -fn_score_holder- -ns-_skipped matches 1.. run scoreboard players add -skip_counter- -ns-_global 1
scoreboard players set -fn_score_holder- -ns-_skipped 1
function -ns-:-orig_ns-/-orig/fn-/-position-
`

// IterateSameExecutor drives one step of an "execute as @e[...] run
// function ..." call site that matched more than one entity. Each call
// picks exactly one entity still carrying -pending_tag- and hands it to
// iterate_same_executor_body_<position>; that body removes the entity's own
// pending tag before doing anything else, so re-entering this driver from
// continue_at_<position> (once the entity's frame returns) always makes
// forward progress. Once no pending entity remains, control falls through
// to the same continue_current_iteration_at_<position> a non-iterating call
// site reaches directly.
const IterateSameExecutor = `execute unless score breakpoint -ns-_global matches 1 as @e[tag=-pending_tag-,limit=1] run function -ns-:-orig_ns-/-orig/fn-/iterate_same_executor_body_-position-
execute unless score breakpoint -ns-_global matches 1 unless entity @e[tag=-pending_tag-] run function -ns-:-orig_ns-/-orig/fn-/continue_current_iteration_at_-position-
`

// IterateSameExecutorBody runs once per entity an iterating call site
// matched, always as that one entity (@s), so the summon/id-allocate/call
// sequence a non-iterating call site does unconditionally happens exactly
// once per matched entity instead of once per command dispatch.
const IterateSameExecutorBody = `tag @s remove -pending_tag-
summon area_effect_cloud ~ ~ ~ {Tags:["-ns-_new","-ns-","-ns-_function_call","-call_tag-","-ns-_active"]}
execute as @e[tag=-ns-_new,limit=1] run function -ns-:id/allocate
tag @e[tag=-ns-_new,limit=1] remove -ns-_new
scoreboard players add depth -ns-_global 1
function -ns-:-call_ns-/-call/fn-/start
`

// SkippedFunctionsWarning is called whenever a breakpoint fires; for each
// of the skipped_missing/skipped_invalid counters that is nonzero it lists
// the missing or invalid callees found at compile time, so a partially
// broken datapack still gives the operator actionable signal about what it
// could not instrument.
const SkippedFunctionsWarning = `execute if score skipped_missing -ns-_global matches 1.. run tellraw @a {"text":"[-datapack-] skipped missing-function calls: -missing_functions-","color":"yellow"}
execute if score skipped_invalid -ns-_global matches 1.. run tellraw @a {"text":"[-datapack-] skipped invalid-function calls: -invalid_functions-","color":"yellow"}
`

// ShowSkipped is "debug:show_skipped": it displays the skipped_missing and
// skipped_invalid counter values. SetBreakpoint also calls it on every
// breakpoint hit.
const ShowSkipped = `tellraw @a {"text":"[-datapack-] skipped_missing=","extra":[{"score":{"name":"skipped_missing","objective":"-ns-_global"}}]}
tellraw @a {"text":"[-datapack-] skipped_invalid=","extra":[{"score":{"name":"skipped_invalid","objective":"-ns-_global"}}]}
`

// ShowScores is "debug:show_scores": a diagnostic dump of the global
// bookkeeping scores, useful when a session appears stuck.
const ShowScores = `tellraw @a {"text":"[-datapack-] breakpoint=","extra":[{"score":{"name":"breakpoint","objective":"-ns-_global"}}]}
tellraw @a {"text":"[-datapack-] depth=","extra":[{"score":{"name":"depth","objective":"-ns-_global"}}]}
function -ns-:update_scores
`

// UpdateScores refreshes any derived display-only score that show_scores
// depends on but that is not itself maintained incrementally elsewhere.
const UpdateScores = `scoreboard players operation depth_display -ns-_scores = depth -ns-_global
`
