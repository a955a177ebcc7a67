package parser

import (
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// resourceNamePattern is the grammar a "ns:path" callee must satisfy.
var resourceNamePattern = regexp.MustCompile(`^[a-z0-9_.-]+:[a-z0-9_./-]+$`)

// executeModifierKeywords are the sub-clause keywords the emitter needs to
// reason about; anything else between "execute" and "run" is unrecognized.
var executeModifierKeywords = map[string]bool{
	"as": true, "at": true, "positioned": true, "rotated": true,
	"facing": true, "anchored": true, "in": true, "align": true,
	"if": true, "unless": true, "store": true,
}

// opaqueCache memoizes the parse of raw lines that end up Opaque, since
// large datapacks frequently repeat the same idiomatic commands (scoreboard
// operations, tellraw boilerplate, ...) across many functions. Parsing is
// otherwise line-local and side-effect free, so memoizing by raw text alone
// is sound.
var opaqueCache, _ = lru.New[string, ParsedLine](4096)

// ParseLine parses one physical source line (already stripped of its
// trailing newline) into a ParsedLine, or returns an *InvalidCommand.
func ParseLine(raw string, lineNumber int) (ParsedLine, error) {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		return ParsedLine{Kind: KindOpaque, Opaque: Opaque{RawText: "", NeedsContextRestore: false}}, nil
	}

	if strings.HasPrefix(trimmed, "#") {
		if trimmed == "# breakpoint" {
			return ParsedLine{Kind: KindBreakpoint}, nil
		}
		return ParsedLine{Kind: KindOpaque, Opaque: Opaque{RawText: trimmed, NeedsContextRestore: false}}, nil
	}

	fields := collapseFields(trimmed)
	switch fields[0] {
	case "function":
		return parseFunctionCall(fields, trimmed, lineNumber)
	case "schedule":
		return parseSchedule(fields, trimmed, lineNumber)
	case "execute":
		return parseExecute(fields, trimmed, lineNumber)
	default:
		if cached, ok := opaqueCache.Get(trimmed); ok {
			return cached, nil
		}
		line := ParsedLine{Kind: KindOpaque, Opaque: Opaque{
			RawText:             trimmed,
			NeedsContextRestore: needsContextRestore(trimmed),
		}}
		opaqueCache.Add(trimmed, line)
		return line, nil
	}
}

// collapseFields splits on the game's whitespace tokenization: runs of
// spaces/tabs separate tokens, leading/trailing whitespace is already gone.
func collapseFields(s string) []string {
	return strings.Fields(s)
}

func parseFunctionCall(fields []string, raw string, lineNumber int) (ParsedLine, error) {
	if len(fields) != 2 {
		return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "malformed 'function' command: %q", raw)
	}
	if !resourceNamePattern.MatchString(fields[1]) {
		return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "invalid resource name %q", fields[1])
	}
	return ParsedLine{Kind: KindFunctionCall, FunctionCall: FunctionCall{Callee: fields[1]}}, nil
}

func parseSchedule(fields []string, raw string, lineNumber int) (ParsedLine, error) {
	if len(fields) < 2 {
		return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "malformed 'schedule' command: %q", raw)
	}
	switch fields[1] {
	case "clear":
		if len(fields) != 3 {
			return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "malformed 'schedule clear' command: %q", raw)
		}
		if !resourceNamePattern.MatchString(fields[2]) {
			return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "invalid resource name %q", fields[2])
		}
		return ParsedLine{Kind: KindSchedule, Schedule: Schedule{Kind: ScheduleClear, Callee: fields[2]}}, nil

	case "function":
		if len(fields) < 4 || len(fields) > 5 {
			return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "malformed 'schedule function' command: %q", raw)
		}
		if !resourceNamePattern.MatchString(fields[2]) {
			return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "invalid resource name %q", fields[2])
		}
		ticks, terr := parseTicks(fields[3])
		if terr != nil {
			return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "invalid tick count %q: %v", fields[3], terr)
		}
		kind := ScheduleAppend
		if len(fields) == 5 {
			switch fields[4] {
			case "append":
				kind = ScheduleAppend
			case "replace":
				kind = ScheduleReplace
			default:
				return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "unknown schedule mode %q", fields[4])
			}
		}
		return ParsedLine{Kind: KindSchedule, Schedule: Schedule{Kind: kind, Callee: fields[2], Ticks: ticks}}, nil

	default:
		return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "unknown 'schedule' sub-command %q", fields[1])
	}
}

func parseTicks(tok string) (int, error) {
	if !strings.HasSuffix(tok, "t") {
		return 0, strOpErr("missing trailing 't'")
	}
	n, err := strconv.Atoi(strings.TrimSuffix(tok, "t"))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strOpErr("negative tick count")
	}
	return n, nil
}

type strOpErr string

func (e strOpErr) Error() string { return string(e) }

func parseExecute(fields []string, raw string, lineNumber int) (ParsedLine, error) {
	tokens := fields[1:]
	var chain []Modifier

	i := 0
	for i < len(tokens) {
		if tokens[i] == "run" {
			break
		}
		kw := tokens[i]
		if !executeModifierKeywords[kw] {
			return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "unrecognized execute sub-clause %q", kw)
		}
		j := i + 1
		if (kw == "positioned" || kw == "rotated") && j < len(tokens) && tokens[j] == "as" {
			j++ // "positioned as"/"rotated as": this "as" belongs to the clause
		}
		for j < len(tokens) && !executeModifierKeywords[tokens[j]] && tokens[j] != "run" {
			j++
		}
		clauseTokens := tokens[i+1 : j]
		mod := classifyModifier(kw, clauseTokens)
		chain = append(chain, mod)
		i = j
	}

	if i >= len(tokens) || tokens[i] != "run" {
		return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "'execute' chain missing terminal 'run': %q", raw)
	}
	innerTokens := tokens[i+1:]
	if len(innerTokens) == 0 {
		return ParsedLine{}, invalidf(lineNumber, 0, len(raw), "'execute ... run' has no inner command")
	}
	innerRaw := strings.Join(innerTokens, " ")
	inner, err := ParseLine(innerRaw, lineNumber)
	if err != nil {
		return ParsedLine{}, err
	}
	return ParsedLine{Kind: KindExecuteRun, ExecuteRun: ExecuteRun{Chain: chain, Inner: &inner}}, nil
}

func classifyModifier(kw string, clause []string) Modifier {
	text := strings.Join(clause, " ")
	switch kw {
	case "as":
		return Modifier{Kind: ModAs, Text: text}
	case "at":
		return Modifier{Kind: ModAt, Text: text}
	case "positioned":
		if len(clause) > 0 && clause[0] == "as" {
			return Modifier{Kind: ModPositionedAs, Text: strings.Join(clause[1:], " ")}
		}
		return Modifier{Kind: ModPositioned, Text: text}
	case "rotated":
		if len(clause) > 0 && clause[0] == "as" {
			return Modifier{Kind: ModRotatedAs, Text: strings.Join(clause[1:], " ")}
		}
		return Modifier{Kind: ModRotated, Text: text}
	case "facing":
		if len(clause) > 0 && clause[0] == "entity" {
			return Modifier{Kind: ModFacingEntity, Text: strings.Join(clause[1:], " ")}
		}
		return Modifier{Kind: ModFacing, Text: text}
	case "anchored":
		return Modifier{Kind: ModAnchored, Text: text}
	case "in":
		return Modifier{Kind: ModIn, Text: text}
	case "align":
		return Modifier{Kind: ModAlign, Text: text}
	case "if":
		return Modifier{Kind: ModIf, Text: text}
	case "unless":
		return Modifier{Kind: ModUnless, Text: text}
	case "store":
		return Modifier{Kind: ModStore, Text: text}
	default:
		return Modifier{Kind: ModAs, Text: text}
	}
}
