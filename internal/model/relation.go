// Package model defines the shared vocabulary of the build engine: relations,
// materializations, data tests, model headers, and projects.
package model

import (
	"fmt"
	"slices"
	"strings"
)

// Relation identifies a schema-qualified table or view. It is comparable and
// can key maps and sets.
type Relation struct {
	Schema string
	Name   string
}

// ParseRelation parses "schema.name" text. Exactly two non-empty
// dot-separated segments are required.
func ParseRelation(s string) (Relation, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Relation{}, fmt.Errorf("invalid relation %q: expected schema.name", s)
	}
	return Relation{Schema: parts[0], Name: parts[1]}, nil
}

func (r Relation) String() string {
	return r.Schema + "." + r.Name
}

// Less orders relations by schema, then name.
func (r Relation) Less(other Relation) bool {
	if r.Schema != other.Schema {
		return r.Schema < other.Schema
	}
	return r.Name < other.Name
}

// IsZero reports whether the relation is the empty value.
func (r Relation) IsZero() bool {
	return r.Schema == "" && r.Name == ""
}

// SortRelations sorts a slice of relations in place by schema, then name.
func SortRelations(rels []Relation) {
	slices.SortFunc(rels, func(a, b Relation) int {
		if a.Schema != b.Schema {
			return strings.Compare(a.Schema, b.Schema)
		}
		return strings.Compare(a.Name, b.Name)
	})
}
