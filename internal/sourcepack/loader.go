package sourcepack

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// functionGlob matches "data/<ns>/functions/**.mcfunction" relative paths.
const functionGlob = "data/*/functions/**/*.mcfunction"

// ErrNoPackMeta is returned when the input root has no pack.mcmeta.
var ErrNoPackMeta = fmt.Errorf("pack.mcmeta not found")

// Load walks root and produces a SourceDatapack. internalNamespace is the
// already-validated "ns" (see internal/options); it is stamped onto the
// result so downstream stages never need to thread it separately.
//
// Load honors an optional ".mcfdebugignore" file at root, using the same
// gitignore-pattern matching used elsewhere for repository-aware file
// discovery: lines in that file are matched against each candidate's
// root-relative path before it is considered a source function.
func Load(root, internalNamespace string) (*SourceDatapack, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %q: not a directory", root)
	}
	if _, err := os.Stat(filepath.Join(root, "pack.mcmeta")); err != nil {
		return nil, ErrNoPackMeta
	}

	gi := loadIgnore(root)

	dp := &SourceDatapack{
		Functions:         make(map[string]*SourceFunction),
		DebugNamespace:    "debug",
		InternalNamespace: internalNamespace,
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		matched, err := doublestar.Match(functionGlob, rel)
		if err != nil || !matched {
			return nil
		}

		name, perr := functionNameFromPath(rel)
		if perr != nil {
			return nil
		}

		lines, rerr := readLines(path)
		if rerr != nil {
			return fmt.Errorf("reading %q: %w", rel, rerr)
		}

		key := name.String()
		if _, exists := dp.Functions[key]; exists {
			return fmt.Errorf("duplicate source function %q", key)
		}
		dp.Functions[key] = &SourceFunction{Name: name, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dp, nil
}

// functionNameFromPath turns "data/<ns>/functions/a/b.mcfunction" into
// FunctionName{ns, "a/b"}.
func functionNameFromPath(rel string) (FunctionName, error) {
	parts := strings.Split(rel, "/")
	if len(parts) < 4 || parts[0] != "data" || parts[2] != "functions" {
		return FunctionName{}, fmt.Errorf("not a function path: %q", rel)
	}
	ns := parts[1]
	fnPath := strings.Join(parts[3:], "/")
	fnPath = strings.TrimSuffix(fnPath, ".mcfunction")
	return FunctionName{Namespace: ns, Path: fnPath}, nil
}

func loadIgnore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".mcfdebugignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}

func readLines(path string) ([]SourceLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []SourceLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		lines = append(lines, SourceLine{Number: n, Raw: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
