package parser

import (
	"fmt"
	"strings"

	"github.com/cascade-data/cascade/internal/model"
)

// Test header syntax: a comma list of name(arg, arg...) calls. Commas inside
// parentheses, brackets, or quoted strings never split; quoted strings escape
// a quote by doubling it ('it''s').

// parseTests parses the full tests: header value.
func parseTests(value string) ([]model.Test, error) {
	specs, err := splitTopLevel(value, ',')
	if err != nil {
		return nil, err
	}
	var tests []model.Test
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		test, err := parseTest(spec)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}
	return tests, nil
}

// parseTest parses one name(args) call.
func parseTest(spec string) (model.Test, error) {
	open := strings.IndexByte(spec, '(')
	if open < 0 || !strings.HasSuffix(spec, ")") {
		return nil, fmt.Errorf("malformed test %q: expected name(arg, ...)", spec)
	}
	name := strings.TrimSpace(spec[:open])
	argText := spec[open+1 : len(spec)-1]

	rawArgs, err := splitTopLevel(argText, ',')
	if err != nil {
		return nil, fmt.Errorf("malformed test %q: %w", spec, err)
	}
	args := make([]string, 0, len(rawArgs))
	for _, a := range rawArgs {
		a = strings.TrimSpace(a)
		if a != "" {
			args = append(args, a)
		}
	}

	switch name {
	case "not_null":
		if len(args) != 1 {
			return nil, fmt.Errorf("not_null expects 1 argument, got %d", len(args))
		}
		return model.NotNull{Column: args[0]}, nil

	case "unique":
		if len(args) == 0 {
			return nil, fmt.Errorf("unique expects at least 1 argument")
		}
		return model.Unique{Columns: args}, nil

	case "accepted_values":
		if len(args) != 2 {
			return nil, fmt.Errorf("accepted_values expects 2 arguments (column, [values]), got %d", len(args))
		}
		values, err := parseValueList(args[1])
		if err != nil {
			return nil, fmt.Errorf("accepted_values: %w", err)
		}
		return model.AcceptedValues{Column: args[0], Values: values}, nil

	case "relationships":
		if len(args) != 2 {
			return nil, fmt.Errorf("relationships expects 2 arguments (column, schema.table.column), got %d", len(args))
		}
		parts := strings.Split(args[1], ".")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("relationships target %q must be schema.table.column", args[1])
		}
		return model.Relationships{
			Column:       args[0],
			TargetTable:  model.Relation{Schema: parts[0], Name: parts[1]},
			TargetColumn: parts[2],
		}, nil
	}
	return nil, fmt.Errorf("unknown test %q (known: not_null, unique, accepted_values, relationships)", name)
}

// parseValueList parses ['a', 'b', ...] into decoded strings.
func parseValueList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("expected a [...] value list, got %q", s)
	}
	inner := s[1 : len(s)-1]
	if strings.TrimSpace(inner) == "" {
		return nil, fmt.Errorf("value list must not be empty")
	}

	items, err := splitTopLevel(inner, ',')
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if strings.HasPrefix(item, "'") {
			decoded, err := decodeQuoted(item)
			if err != nil {
				return nil, err
			}
			values = append(values, decoded)
			continue
		}
		if item == "" {
			return nil, fmt.Errorf("empty value in list")
		}
		values = append(values, item)
	}
	return values, nil
}

// decodeQuoted decodes a single-quoted string with doubled-quote escapes.
func decodeQuoted(s string) (string, error) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", fmt.Errorf("unterminated quoted string %q", s)
	}
	inner := s[1 : len(s)-1]

	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\'' {
			if i+1 < len(inner) && inner[i+1] == '\'' {
				sb.WriteByte('\'')
				i++
				continue
			}
			return "", fmt.Errorf("stray quote inside %q", s)
		}
		sb.WriteByte(inner[i])
	}
	return sb.String(), nil
}

// splitTopLevel splits s on sep, ignoring separators nested in parentheses,
// brackets, or quoted strings.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	var depth int
	var start int
	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if c == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inQuote = false
			}
			continue
		}
		switch c {
		case '\'':
			inQuote = true
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in %q", s)
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quoted string in %q", s)
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", s)
	}
	if start < len(s) || len(parts) > 0 {
		parts = append(parts, s[start:])
	}
	return parts, nil
}
