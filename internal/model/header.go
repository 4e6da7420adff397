package model

import "fmt"

// Materialized is the physical object type a model compiles to.
type Materialized int

// Materialization kinds.
const (
	View Materialized = iota
	Table
	Incremental
)

// ParseMaterialized parses a materialization name from a header value.
func ParseMaterialized(s string) (Materialized, error) {
	switch s {
	case "view":
		return View, nil
	case "table":
		return Table, nil
	case "incremental":
		return Incremental, nil
	}
	return View, fmt.Errorf("invalid materialized value %q: expected view, table, or incremental", s)
}

func (m Materialized) String() string {
	switch m {
	case View:
		return "view"
	case Table:
		return "table"
	case Incremental:
		return "incremental"
	}
	return fmt.Sprintf("Materialized(%d)", int(m))
}

// ModelHeader holds the parsed and validated metadata block of a model file.
type ModelHeader struct {
	Materialized      Materialized
	Deps              []Relation
	UniqueKey         []string // required iff Incremental
	Tests             []Test
	Tags              []string
	Watermark         []string // incremental only
	Lookback          string   // incremental only, requires Watermark
	IncrementalFilter string   // incremental only, exclusive with Watermark
}

// Validate enforces the cross-field invariants.
func (h *ModelHeader) Validate() error {
	if h.Materialized == Incremental {
		if len(h.UniqueKey) == 0 {
			return fmt.Errorf("incremental models require a non-empty unique_key")
		}
	} else {
		if len(h.UniqueKey) > 0 {
			return fmt.Errorf("unique_key is only valid for incremental models")
		}
		if len(h.Watermark) > 0 {
			return fmt.Errorf("watermark is only valid for incremental models")
		}
		if h.Lookback != "" {
			return fmt.Errorf("lookback is only valid for incremental models")
		}
		if h.IncrementalFilter != "" {
			return fmt.Errorf("incremental_filter is only valid for incremental models")
		}
	}
	if h.Lookback != "" && len(h.Watermark) == 0 {
		return fmt.Errorf("lookback requires watermark")
	}
	if len(h.Watermark) > 0 && h.IncrementalFilter != "" {
		return fmt.Errorf("watermark and incremental_filter are mutually exclusive")
	}
	return nil
}

// HasTag reports whether the header carries the given tag.
func (h *ModelHeader) HasTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
