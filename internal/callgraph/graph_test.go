package callgraph

import (
	"testing"

	"github.com/mcfdebug/mcfdebug/internal/program"
	"github.com/mcfdebug/mcfdebug/internal/sourcepack"
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

func TestBuild_PresentMissingInvalid(t *testing.T) {
	dp := mkDatapack(t, map[string][]string{
		"foo:a": {"function foo:b", "function gone:nope", "function foo:broken"},
		"foo:b": {"say hi"},
		"foo:broken": {"execute bogus run function foo:b"},
	})
	prog := program.Parse(dp)
	g := BuildFromProgram(prog)

	require.Equal(t, Valid, g.NodeValidity("foo:a"))
	require.Equal(t, Valid, g.NodeValidity("foo:b"))
	require.Equal(t, Invalid, g.NodeValidity("foo:broken"))

	byCallee := map[string]CalleeStatus{}
	for _, e := range g.Edges {
		if e.Caller == "foo:a" {
			byCallee[e.Callee] = e.Status
		}
	}
	require.Equal(t, Present, byCallee["foo:b"])
	require.Equal(t, Missing, byCallee["gone:nope"])
	require.Equal(t, CalleeInvalid, byCallee["foo:broken"])
}

func TestBuild_InvalidFunctionRecordsFailingLine(t *testing.T) {
	// A function with an unparsable line is marked Invalid, and the failing
	// line is recorded with its line number.
	dp := mkDatapack(t, map[string][]string{
		"foo:broken": {"say ok", "execute bogus run say x"},
	})
	prog := program.Parse(dp)
	g := BuildFromProgram(prog)
	require.Equal(t, Invalid, g.NodeValidity("foo:broken"))
	require.Len(t, g.InvalidCommands("foo:broken"), 1)
	require.Equal(t, 2, g.InvalidCommands("foo:broken")[0].LineNumber)
}

func TestBuild_ScheduleEdgeCounts(t *testing.T) {
	dp := mkDatapack(t, map[string][]string{
		"foo:a": {"schedule function foo:cb 5t append", "schedule clear foo:other"},
		"foo:cb": {"say hi"},
	})
	prog := program.Parse(dp)
	g := BuildFromProgram(prog)
	require.Len(t, g.Edges, 1) // schedule clear is not a call edge
	require.Equal(t, "foo:cb", g.Edges[0].Callee)
	require.Equal(t, Present, g.Edges[0].Status)
}
