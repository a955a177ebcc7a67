// Package writer drains an output.Set to disk: the one place in the
// compiler that touches the filesystem for output, so the emitter itself
// stays a pure function.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcfdebug/mcfdebug/internal/diagnostics"
	"github.com/mcfdebug/mcfdebug/internal/output"
)

// packMeta is the minimal pack.mcmeta document every generated datapack
// needs to load in-game.
type packMeta struct {
	Pack struct {
		PackFormat int    `json:"pack_format"`
		Description string `json:"description"`
	} `json:"pack"`
}

// PackFormat is the data pack format written to pack.mcmeta. 26 targets the
// 1.20.2-1.20.4 command grammar this compiler's templates assume.
const PackFormat = 26

// tagFile is the minimal "functions to run on this event" tag document, used
// for both #minecraft:load and #minecraft:tick.
type tagFile struct {
	Values []string `json:"values"`
}

// Write drains files to root, in sorted-path order, and additionally writes
// pack.mcmeta and the load/tick function tags that hand control to
// debug:install and debug:tick respectively. It returns an
// OutputWriteFailure diagnostic on the first filesystem error, matching the
// abort-on-first-error policy every other diagnostics.Kind follows.
func Write(files *output.Set, root, datapackName string) *diagnostics.Diagnostic {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return writeFailure(root, err)
	}

	if err := writeJSON(filepath.Join(root, "pack.mcmeta"), buildPackMeta(datapackName)); err != nil {
		return writeFailure(root, err)
	}

	for _, f := range files.All() {
		full := filepath.Join(root, f.Path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return writeFailure(full, err)
		}
		if err := os.WriteFile(full, f.Bytes, 0o644); err != nil {
			return writeFailure(full, err)
		}
	}

	if err := writeJSON(filepath.Join(root, "data", "minecraft", "tags", "functions", "load.json"), tagFile{Values: []string{"debug:install"}}); err != nil {
		return writeFailure(root, err)
	}
	if err := writeJSON(filepath.Join(root, "data", "minecraft", "tags", "functions", "tick.json"), tagFile{Values: []string{"debug:tick"}}); err != nil {
		return writeFailure(root, err)
	}
	return nil
}

func buildPackMeta(datapackName string) packMeta {
	var m packMeta
	m.Pack.PackFormat = PackFormat
	m.Pack.Description = "debug instrumentation for " + datapackName
	return m
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func writeFailure(path string, err error) *diagnostics.Diagnostic {
	return &diagnostics.Diagnostic{
		File:    path,
		Kind:    diagnostics.KindOutputWriteFailure,
		Message: fmt.Sprintf("%v", err),
	}
}
