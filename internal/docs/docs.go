// Package docs generates markdown documentation for a project under the
// target directory.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
	"github.com/cascade-data/cascade/internal/render"
)

// Generate writes one markdown page per model plus an index with the project
// graph to <targetDir>/docs/. It returns the written paths, index first.
func Generate(p *model.Project, targetDir string) ([]string, error) {
	dir := filepath.Join(targetDir, "docs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	indexPath := filepath.Join(dir, "index.md")
	if err := os.WriteFile(indexPath, []byte(indexPage(p)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", indexPath, err)
	}
	written := []string{indexPath}

	for _, id := range p.ModelIDs() {
		path := filepath.Join(dir, id.Schema+"."+id.Name+".md")
		if err := os.WriteFile(path, []byte(modelPage(p, p.Models[id])), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func indexPage(p *model.Project) string {
	var sb strings.Builder
	sb.WriteString("# Models\n\n")
	sb.WriteString("| Model | Materialized | Tags |\n")
	sb.WriteString("| --- | --- | --- |\n")
	for _, id := range p.ModelIDs() {
		m := p.Models[id]
		fmt.Fprintf(&sb, "| [%s](%s.%s.md) | %s | %s |\n",
			id, id.Schema, id.Name,
			m.Header.Materialized, strings.Join(m.Header.Tags, ", "))
	}

	sb.WriteString("\n## Dependency graph\n\n")
	sb.WriteString("```mermaid\n")
	sb.WriteString(render.Mermaid(p))
	sb.WriteString("```\n")
	return sb.String()
}

func modelPage(p *model.Project, m *model.Model) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.ID)
	fmt.Fprintf(&sb, "- **Materialized:** %s\n", m.Header.Materialized)
	if len(m.Header.Tags) > 0 {
		fmt.Fprintf(&sb, "- **Tags:** %s\n", strings.Join(m.Header.Tags, ", "))
	}
	if len(m.Header.UniqueKey) > 0 {
		fmt.Fprintf(&sb, "- **Unique key:** %s\n", strings.Join(m.Header.UniqueKey, ", "))
	}
	if m.Path != "" {
		fmt.Fprintf(&sb, "- **File:** `%s`\n", m.Path)
	}

	writeRelationList(&sb, "Depends on", m.Header.Deps, p)
	if dependents := directDependents(p, m.ID); len(dependents) > 0 {
		writeRelationList(&sb, "Used by", dependents, p)
	}

	if len(m.Header.Tests) > 0 {
		sb.WriteString("\n## Tests\n\n")
		for _, tst := range m.Header.Tests {
			fmt.Fprintf(&sb, "- `%s`\n", tst.Name())
		}
	}

	sb.WriteString("\n## SQL\n\n```sql\n")
	sb.WriteString(strings.TrimRight(m.BodySQL, "\n"))
	sb.WriteString("\n```\n")
	return sb.String()
}

func writeRelationList(sb *strings.Builder, title string, rels []model.Relation, p *model.Project) {
	if len(rels) == 0 {
		return
	}
	sorted := append([]model.Relation{}, rels...)
	model.SortRelations(sorted)

	fmt.Fprintf(sb, "\n## %s\n\n", title)
	for _, r := range sorted {
		if p.IsSource(r) {
			fmt.Fprintf(sb, "- %s (source)\n", r)
		} else {
			fmt.Fprintf(sb, "- [%s](%s.%s.md)\n", r, r.Schema, r.Name)
		}
	}
}

func directDependents(p *model.Project, id model.Relation) []model.Relation {
	var out []model.Relation
	for _, other := range p.ModelIDs() {
		for _, d := range p.Models[other].Header.Deps {
			if d == id {
				out = append(out, other)
				break
			}
		}
	}
	return out
}
