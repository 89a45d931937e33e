package catalog

import "fmt"

// ContentFetchError reports that the raw document could not be retrieved.
type ContentFetchError struct {
	Source string
	Err    error
}

func (e *ContentFetchError) Error() string {
	return fmt.Sprintf("failed to fetch application list from %s: %v", e.Source, e.Err)
}

func (e *ContentFetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a failure of the parse pass itself, such as undecodable
// input or cancellation. Malformed lines are diagnostics, never a ParseError.
type ParseError struct {
	Line int // 0 when not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse application list at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse application list: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
