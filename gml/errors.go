package gml

import "fmt"

// excerptLen bounds the amount of trailing input quoted in parse errors.
const excerptLen = 80

// ParseError reports malformed GML. Excerpt holds up to 80 characters of
// input starting at the failure point.
type ParseError struct {
	Line    int
	Excerpt string
	Msg     string
}

func (e *ParseError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("gml: parse error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("gml: parse error at line %d: %s, stopped at: %q", e.Line, e.Msg, e.Excerpt)
}

// PreprocessError reports a malformed preprocessor construct: a nested
// define, an unmatched brace, or an #enddef outside any define.
type PreprocessError struct {
	Line int
	Msg  string
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("gml: preprocessor error at line %d: %s", e.Line, e.Msg)
}
