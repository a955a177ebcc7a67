package template

// FreezeAEC freezes every not-yet-frozen marker entity the moment a
// breakpoint fires, so the operator sees a stable snapshot of every
// suspended context entity rather than ones still ticking.
const FreezeAEC = `execute as @e[tag=-ns-,tag=!-ns-_frozen] at @s run tp @s ~ ~ ~
execute as @e[tag=-ns-,tag=!-ns-_frozen] run tag @s add -ns-_frozen
`

// DecrementAge runs once per tick as each pending schedule marker (see
// TickStart): it mirrors the marker's live Age/Duration/WaitTime NBT
// fields into their scoreboard counterparts and refreshes its display name
// with a live tick countdown, the same visibility AnimateContext gives
// suspended call frames.
const DecrementAge = `execute store result score @s -ns-_Age run data get entity @s Age 1
execute store result score @s -ns-_Duration run data get entity @s Duration 1
execute store result score @s -ns-_WaitTime run data get entity @s WaitTime 1
data modify entity @s CustomName set value '{"text":"scheduled, ticks remaining: ","extra":[{"score":{"name":"@s","objective":"-ns-_WaitTime"}}]}'
data modify entity @s CustomNameVisible set value 1b
`

// AnimateContext runs every tick against every live breakpoint marker and
// keeps its custom name visible; it changes nothing but that presentation
// flag (the name text itself is set once, by SetBreakpoint).
const AnimateContext = `data modify entity @s CustomNameVisible set value 1b
`

// IDInstall seeds the monotonic entity-id counter used to disambiguate
// same-tick context entities belonging to different call-stack depths.
const IDInstall = `scoreboard objectives add -ns-_id dummy
scoreboard players set next_id -ns-_id 0
`

// IDAllocate hands out the next entity id and stores it in the -ns-_id
// score of the entity the command is run as, so later stages can re-select that exact entity by a
// scoreboard-held numeric id rather than by positional selectors.
const IDAllocate = `scoreboard players add next_id -ns-_id 1
scoreboard players operation @s -ns-_id = next_id -ns-_id
`
