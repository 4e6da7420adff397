package engine

// artifacts.go - Compiled SQL written under the target directory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cascade-data/cascade/internal/model"
)

// CompileAll writes the run form of every model to
// <targetDir>/compiled/<schema>/<name>.sql and returns the written paths in
// model order.
func (e *Engine) CompileAll(targetDir string) ([]string, error) {
	order, err := e.graph.TopoSort()
	if err != nil {
		return nil, err
	}

	var written []string
	for _, id := range order {
		m := e.project.Models[id]
		path, err := writeCompiled(targetDir, m, e.db.QuoteIdent)
		if err != nil {
			return written, err
		}
		e.logger.Debug("compiled model", "model", id.String(), "path", path)
		written = append(written, path)
	}
	return written, nil
}

func writeCompiled(targetDir string, m *model.Model, quote Quote) (string, error) {
	dir := filepath.Join(targetDir, "compiled", m.ID.Schema)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, m.ID.Name+".sql")
	sql := GenerateRunSQL(m, quote)
	if err := os.WriteFile(path, []byte(sql), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
