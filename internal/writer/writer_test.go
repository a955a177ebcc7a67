package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcfdebug/mcfdebug/internal/output"
	"github.com/stretchr/testify/require"
)

func TestWrite_StagesFilesAndFixedDocuments(t *testing.T) {
	s := output.NewSet()
	require.NoError(t, s.Add("data/debug/functions/install.mcfunction", "globals", "say hi"))
	require.NoError(t, s.Add("data/mcfd/functions/foo/1_0.mcfunction", "foo:main", "say block"))

	root := t.TempDir()
	d := Write(s, root, "example")
	require.Nil(t, d)

	require.FileExists(t, filepath.Join(root, "data/debug/functions/install.mcfunction"))
	require.FileExists(t, filepath.Join(root, "data/mcfd/functions/foo/1_0.mcfunction"))
	require.FileExists(t, filepath.Join(root, "pack.mcmeta"))

	var meta packMeta
	b, err := os.ReadFile(filepath.Join(root, "pack.mcmeta"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &meta))
	require.Equal(t, PackFormat, meta.Pack.PackFormat)

	var load tagFile
	b, err = os.ReadFile(filepath.Join(root, "data/minecraft/tags/functions/load.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &load))
	require.Equal(t, []string{"debug:install"}, load.Values)

	var tick tagFile
	b, err = os.ReadFile(filepath.Join(root, "data/minecraft/tags/functions/tick.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &tick))
	require.Equal(t, []string{"debug:tick"}, tick.Values)
}

func TestWrite_FailureOnUnwritableRoot(t *testing.T) {
	s := output.NewSet()
	require.NoError(t, s.Add("a.mcfunction", "src", "x"))

	root := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(root, []byte("not a dir"), 0o644))

	d := Write(s, root, "example")
	require.NotNil(t, d)
}

func TestDryRunTree_DoesNotTouchDisk(t *testing.T) {
	s := output.NewSet()
	require.NoError(t, s.Add("data/debug/functions/install.mcfunction", "globals", "x"))
	require.NoError(t, s.Add("data/mcfd/functions/foo/1_0.mcfunction", "foo:main", "y"))

	w := new(nullWriter)
	require.NoError(t, DryRunTree(w, s, "example"))
	require.Greater(t, w.written, 0)
}

type nullWriter struct{ written int }

func (w *nullWriter) Write(p []byte) (int, error) {
	w.written += len(p)
	return len(p), nil
}
