package analyze

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
	"github.com/cascade-data/cascade/internal/parser"
)

// FixDepsLine rewrites the header's deps: line of the model file at path to
// declare exactly deps. When the header has no deps line and deps is
// non-empty, one is inserted after the materialized line. The original body
// text is left byte-for-byte untouched.
func FixDepsLine(path string, deps []model.Relation) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	res, err := parser.ParseFile(path, string(content))
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")

	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.String()
	}
	depsLine := "-- deps: " + strings.Join(names, ", ")

	switch {
	case res.DepsLine > 0 && len(deps) == 0:
		lines = append(lines[:res.DepsLine-1], lines[res.DepsLine:]...)
	case res.DepsLine > 0:
		lines[res.DepsLine-1] = depsLine
	case len(deps) > 0:
		at := materializedLine(lines, res.HeaderLines)
		lines = append(lines[:at], append([]string{depsLine}, lines[at:]...)...)
	default:
		return nil
	}

	return writeAtomic(path, strings.Join(lines, "\n"))
}

// FixBody replaces everything after the header block with newSQL, keeping
// the header text untouched.
func FixBody(path, newSQL string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	res, err := parser.ParseFile(path, string(content))
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	header := strings.Join(lines[:res.HeaderLines], "\n")

	out := header
	if header != "" {
		out += "\n"
	}
	out += strings.TrimRight(newSQL, "\n") + "\n"
	return writeAtomic(path, out)
}

// materializedLine returns the insertion index right after the materialized
// header line, falling back to the top of the file.
func materializedLine(lines []string, headerLines int) int {
	for i := 0; i < headerLines && i < len(lines); i++ {
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), "--"))
		if strings.HasPrefix(text, "materialized") {
			return i + 1
		}
	}
	return 0
}

// writeAtomic writes content via a temp file in the same directory followed
// by a rename, so a failure never leaves a truncated model file.
func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
