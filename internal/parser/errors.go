package parser

import "fmt"

// HeaderParseError reports a problem in a model file's header block.
type HeaderParseError struct {
	File    string
	Line    int
	Message string
}

func (e *HeaderParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// BodyParseError reports a problem in a model file's body sections.
type BodyParseError struct {
	File    string
	Message string
}

func (e *BodyParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}
