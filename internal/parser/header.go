// Package parser turns a model file's leading comment block into a validated
// header and splits incremental bodies into their sections.
package parser

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
)

// Result holds the outcome of parsing one model file.
type Result struct {
	Header model.ModelHeader

	// Body is the SQL text after the header block.
	Body string

	// HeaderLines is the number of leading lines consumed by the header.
	HeaderLines int

	// DepsLine is the 1-based line number of the "deps:" header line, or 0
	// when the header declares no deps. Used by lint --fix to patch the line
	// in place.
	DepsLine int
}

var knownKeys = map[string]bool{
	"materialized":       true,
	"deps":               true,
	"unique_key":         true,
	"tests":              true,
	"tags":               true,
	"watermark":          true,
	"lookback":           true,
	"incremental_filter": true,
}

// materializedHints maps common misspellings to the hint we print.
var materializedHints = []string{"materialize", "material", "mat"}

var (
	tagPattern    = regexp.MustCompile(`^[a-z0-9_-]+$`)
	keyPattern    = regexp.MustCompile(`^[a-z_]+$`)
	markerPattern = regexp.MustCompile(`^--\s*@(base|incremental)\s*$`)
)

// ParseFile parses a model file's content: header block first, then the body.
// file is used for error context only.
func ParseFile(file, content string) (*Result, error) {
	res := &Result{}

	lines := strings.Split(content, "\n")
	seen := map[string]bool{}
	sawMaterialized := false

	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if markerPattern.MatchString(line) {
			// Section markers belong to the body.
			break
		}

		text := strings.TrimSpace(strings.TrimPrefix(line, "--"))
		key, value, ok := strings.Cut(text, ":")
		if !ok {
			// Plain comment line, not a header key.
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Prose comments with a colon ("-- note: ...") are not header keys.
		if !keyPattern.MatchString(key) {
			continue
		}

		if !knownKeys[key] {
			if hint := misspellingHint(key); hint != "" {
				return nil, &HeaderParseError{File: file, Line: i + 1,
					Message: fmt.Sprintf("unknown header key %q: did you mean %q?", key, hint)}
			}
			return nil, &HeaderParseError{File: file, Line: i + 1,
				Message: fmt.Sprintf("unknown header key %q (known keys: %s)", key, knownKeyList())}
		}
		if seen[key] {
			return nil, &HeaderParseError{File: file, Line: i + 1,
				Message: fmt.Sprintf("duplicate header key %q", key)}
		}
		seen[key] = true

		if err := res.applyKey(key, value); err != nil {
			return nil, &HeaderParseError{File: file, Line: i + 1, Message: err.Error()}
		}
		if key == "materialized" {
			sawMaterialized = true
		}
		if key == "deps" {
			res.DepsLine = i + 1
		}
	}

	if !sawMaterialized {
		return nil, &HeaderParseError{File: file,
			Message: "missing required header key \"materialized\" (view, table, or incremental)"}
	}
	if err := res.Header.Validate(); err != nil {
		return nil, &HeaderParseError{File: file, Message: err.Error()}
	}

	res.HeaderLines = i
	res.Body = strings.TrimSpace(strings.Join(lines[i:], "\n"))
	if res.Body == "" {
		return nil, &BodyParseError{File: file, Message: "model body is empty"}
	}
	return res, nil
}

// applyKey parses one header value into the result.
func (r *Result) applyKey(key, value string) error {
	switch key {
	case "materialized":
		mat, err := model.ParseMaterialized(value)
		if err != nil {
			return err
		}
		r.Header.Materialized = mat

	case "deps":
		for _, part := range splitComma(value) {
			rel, err := model.ParseRelation(part)
			if err != nil {
				return fmt.Errorf("invalid dep: %w", err)
			}
			r.Header.Deps = append(r.Header.Deps, rel)
		}

	case "unique_key":
		r.Header.UniqueKey = identList(value)
		if len(r.Header.UniqueKey) == 0 {
			return fmt.Errorf("unique_key must list at least one column")
		}

	case "tests":
		tests, err := parseTests(value)
		if err != nil {
			return err
		}
		r.Header.Tests = tests

	case "tags":
		for _, tag := range splitComma(value) {
			tag = strings.ToLower(tag)
			if !tagPattern.MatchString(tag) {
				return fmt.Errorf("invalid tag %q: tags must match [a-z0-9_-]+", tag)
			}
			r.Header.Tags = append(r.Header.Tags, tag)
		}

	case "watermark":
		r.Header.Watermark = identList(value)
		if len(r.Header.Watermark) == 0 {
			return fmt.Errorf("watermark must list at least one column")
		}

	case "lookback":
		if value == "" {
			return fmt.Errorf("lookback must not be empty")
		}
		r.Header.Lookback = value

	case "incremental_filter":
		if value == "" {
			return fmt.Errorf("incremental_filter must not be empty")
		}
		r.Header.IncrementalFilter = value
	}
	return nil
}

func misspellingHint(key string) string {
	for _, m := range materializedHints {
		if key == m {
			return "materialized"
		}
	}
	return ""
}

func knownKeyList() string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}

// splitComma splits on commas and trims, dropping empty parts.
func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func identList(s string) []string {
	return splitComma(s)
}
