package model

// Model is one user-authored SQL definition: a validated header plus the
// body SQL it compiles to.
type Model struct {
	ID     Relation
	Path   string
	Header ModelHeader

	// BodySQL is the full body text after the header block.
	BodySQL string

	// BaseSQL and IncrementalSQL hold the @base / @incremental sections of an
	// incremental model. Both empty means single-phase incremental. BaseSQL
	// set alone means the same SQL serves first run and merges.
	BaseSQL        string
	IncrementalSQL string
}

// Project is the loaded model tree for one command invocation. It is
// read-only once built.
type Project struct {
	Root    string
	Models  map[Relation]*Model
	Sources map[Relation]bool
}

// NewProject returns an empty project rooted at root.
func NewProject(root string) *Project {
	return &Project{
		Root:    root,
		Models:  make(map[Relation]*Model),
		Sources: make(map[Relation]bool),
	}
}

// ModelIDs returns every model id in sorted order.
func (p *Project) ModelIDs() []Relation {
	ids := make([]Relation, 0, len(p.Models))
	for id := range p.Models {
		ids = append(ids, id)
	}
	SortRelations(ids)
	return ids
}

// IsSource reports whether rel is a declared external source.
func (p *Project) IsSource(rel Relation) bool {
	return p.Sources[rel]
}
