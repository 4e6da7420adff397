// Package loader discovers model files under the models directory and builds
// an in-memory Project.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
	"github.com/cascade-data/cascade/internal/parser"
)

// identPattern restricts path-derived schema and model names.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Loader scans a models directory into a Project.
type Loader struct {
	root      string
	modelsDir string
	sources   []model.Relation
	logger    *slog.Logger
}

// New creates a loader. sources are the externally-managed relations declared
// in the project config.
func New(root, modelsDir string, sources []model.Relation, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		root:      root,
		modelsDir: modelsDir,
		sources:   sources,
		logger:    logger,
	}
}

// Load walks the models directory and parses every model file. Parse errors
// are collected across all files so one bad model does not hide the others.
func (l *Loader) Load() (*model.Project, error) {
	if _, err := os.Stat(l.modelsDir); err != nil {
		return nil, fmt.Errorf("models directory %s: %w", l.modelsDir, err)
	}

	project := model.NewProject(l.root)
	for _, s := range l.sources {
		project.Sources[s] = true
	}

	var loadErrors []error
	err := filepath.WalkDir(l.modelsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}

		m, err := l.loadFile(path)
		if err != nil {
			loadErrors = append(loadErrors, err)
			return nil
		}

		if existing, ok := project.Models[m.ID]; ok {
			loadErrors = append(loadErrors,
				fmt.Errorf("duplicate model %s: defined in %s and %s", m.ID, existing.Path, m.Path))
			return nil
		}
		project.Models[m.ID] = m
		l.logger.Debug("loaded model", "model", m.ID.String(), "path", m.Path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verr := l.validateDeps(project); verr != nil {
		loadErrors = append(loadErrors, verr)
	}

	if len(loadErrors) > 0 {
		return nil, errors.Join(loadErrors...)
	}

	l.logger.Info("project loaded", "models", len(project.Models), "sources", len(project.Sources))
	return project, nil
}

// loadFile parses one model file. The model id is derived from the file's
// location: models/<schema>/<name>.sql.
func (l *Loader) loadFile(path string) (*model.Model, error) {
	id, err := l.relationFromPath(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	res, err := parser.ParseFile(path, string(content))
	if err != nil {
		return nil, err
	}

	m := &model.Model{
		ID:      id,
		Path:    path,
		Header:  res.Header,
		BodySQL: res.Body,
	}

	if res.Header.Materialized == model.Incremental {
		sections, err := parser.SplitSections(path, res.Body)
		if err != nil {
			return nil, err
		}
		m.BaseSQL = sections.Base
		m.IncrementalSQL = sections.Incremental
	}

	for _, d := range res.Header.Deps {
		if d == id {
			return nil, fmt.Errorf("%s: model %s declares itself as a dependency", path, id)
		}
	}
	return m, nil
}

// relationFromPath derives the model id from the path relative to the models
// directory, requiring exactly <schema>/<name>.sql.
func (l *Loader) relationFromPath(path string) (model.Relation, error) {
	relPath, err := filepath.Rel(l.modelsDir, path)
	if err != nil {
		return model.Relation{}, fmt.Errorf("%s: %w", path, err)
	}

	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) != 2 {
		return model.Relation{}, fmt.Errorf(
			"%s: model files must be laid out as <schema>/<name>.sql under %s", path, l.modelsDir)
	}

	schema := parts[0]
	name := strings.TrimSuffix(parts[1], ".sql")
	if !identPattern.MatchString(schema) || !identPattern.MatchString(name) {
		return model.Relation{}, fmt.Errorf(
			"%s: schema and model name must match %s", path, identPattern)
	}
	return model.Relation{Schema: schema, Name: name}, nil
}

// validateDeps checks that every declared dependency names a known model or
// source.
func (l *Loader) validateDeps(project *model.Project) error {
	var errs []error
	for _, id := range project.ModelIDs() {
		m := project.Models[id]
		for _, d := range m.Header.Deps {
			if _, ok := project.Models[d]; ok {
				continue
			}
			if project.IsSource(d) {
				continue
			}
			errs = append(errs, fmt.Errorf(
				"%s: dependency %s is not a known model or source", m.Path, d))
		}
	}
	return errors.Join(errs...)
}
