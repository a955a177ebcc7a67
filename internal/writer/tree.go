package writer

import (
	"io"
	"strings"

	"github.com/ddddddO/gtree"

	"github.com/mcfdebug/mcfdebug/internal/output"
)

// DryRunTree renders the staged output set as a directory tree, without
// touching disk, for the CLI's --dry-run flag.
func DryRunTree(w io.Writer, files *output.Set, rootLabel string) error {
	root := gtree.NewRoot(rootLabel)
	dirs := map[string]*gtree.Node{"": root}

	for _, f := range files.All() {
		parts := strings.Split(f.Path, "/")
		parent := ""
		node := root
		for i, part := range parts {
			isLeaf := i == len(parts)-1
			key := parent + "/" + part
			if existing, ok := dirs[key]; ok {
				node = existing
			} else {
				node = node.Add(part)
				if !isLeaf {
					dirs[key] = node
				}
			}
			parent = key
		}
	}

	return gtree.OutputProgrammably(w, root)
}
