package parser

import (
	"strings"
)

// Sections holds the split @base / @incremental bodies of an incremental
// model. Both empty means the model is single-phase.
type Sections struct {
	Base        string
	Incremental string
}

// SplitSections splits an incremental model body on its section markers.
//
// Layouts:
//   - no markers: both sections empty, the whole body is used as-is
//   - @base only: the base SQL also serves steady-state merges
//   - @base then @incremental: distinct SQL per phase
//
// @incremental without a preceding @base is an error, as are empty sections
// and ${this} inside @base (the target does not exist on the first run).
func SplitSections(file, body string) (*Sections, error) {
	lines := strings.Split(body, "\n")

	type section struct {
		name  string
		start int // line index after the marker
	}
	var markers []section
	for i, line := range lines {
		m := markerPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		markers = append(markers, section{name: m[1], start: i + 1})
	}

	if len(markers) == 0 {
		return &Sections{}, nil
	}

	// Only leading blank lines or comments may precede the first marker.
	for _, line := range lines[:markers[0].start-1] {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return nil, &BodyParseError{File: file,
				Message: "SQL before the first @" + markers[0].name + " marker"}
		}
	}

	if markers[0].name != "base" {
		return nil, &BodyParseError{File: file,
			Message: "@incremental section without a preceding @base section"}
	}
	if len(markers) > 2 {
		return nil, &BodyParseError{File: file, Message: "too many section markers"}
	}

	sections := &Sections{}
	baseEnd := len(lines)
	if len(markers) == 2 {
		if markers[1].name != "incremental" {
			return nil, &BodyParseError{File: file, Message: "duplicate @base section"}
		}
		baseEnd = markers[1].start - 1
		sections.Incremental = strings.TrimSpace(strings.Join(lines[markers[1].start:], "\n"))
		if sections.Incremental == "" {
			return nil, &BodyParseError{File: file, Message: "@incremental section is empty"}
		}
	}

	sections.Base = strings.TrimSpace(strings.Join(lines[markers[0].start:baseEnd], "\n"))
	if sections.Base == "" {
		return nil, &BodyParseError{File: file, Message: "@base section is empty"}
	}
	if strings.Contains(sections.Base, "${this}") {
		return nil, &BodyParseError{File: file,
			Message: "@base section must not reference ${this}: the target table does not exist on the first run"}
	}
	return sections, nil
}
