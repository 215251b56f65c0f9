package gml

import (
	"strconv"
	"strings"
)

// Preprocess strips macro machinery from GML text before parsing:
//
//   - #define <name> <args…> … #enddef regions are removed wholesale;
//   - {…} macro-invocation regions are removed, with nesting;
//   - every other line starting with # is a comment and is removed.
//
// Newlines are always kept and every #-directive line leaves a bare newline
// behind, so line numbers in later diagnostics still refer to the original
// text. Carriage returns count as plain whitespace and are dropped.
func Preprocess(text string) (string, error) {
	var out strings.Builder
	out.Grow(len(text))

	line := 1
	defineLine := 0 // line of the open #define, 0 when outside
	braceDepth := 0
	atLineStart := true

	for i := 0; i < len(text); i++ {
		c := text[i]

		if atLineStart && c == '#' {
			rest := text[i:]
			switch {
			case hasDirective(rest, "#define"):
				if defineLine != 0 {
					return "", &PreprocessError{
						Line: line,
						Msg:  "nested #define (outer define opened at line " +
							strconv.Itoa(defineLine) + ")",
					}
				}
				defineLine = line
			case hasDirective(rest, "#enddef"):
				if defineLine == 0 {
					return "", &PreprocessError{Line: line, Msg: "#enddef outside any #define"}
				}
				defineLine = 0
			}
			// Directive or comment: elide the rest of the line, keep the newline.
			for i < len(text) && text[i] != '\n' {
				i++
			}
			out.WriteByte('\n')
			line++
			continue
		}

		switch c {
		case '\n':
			out.WriteByte('\n')
			line++
			atLineStart = true
			continue
		case '{':
			if defineLine == 0 {
				braceDepth++
				atLineStart = false
				continue
			}
		case '}':
			if defineLine == 0 {
				if braceDepth == 0 {
					return "", &PreprocessError{Line: line, Msg: "unmatched '}'"}
				}
				braceDepth--
				atLineStart = false
				continue
			}
		}

		if defineLine == 0 && braceDepth == 0 {
			if c != '\r' {
				out.WriteByte(c)
			}
		}
		atLineStart = false
	}

	if defineLine != 0 {
		return "", &PreprocessError{Line: defineLine, Msg: "#define without matching #enddef"}
	}
	if braceDepth != 0 {
		return "", &PreprocessError{Line: line, Msg: "unclosed '{' at end of input"}
	}
	return out.String(), nil
}

// hasDirective reports whether s starts with the directive word followed by
// whitespace or end of line.
func hasDirective(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	c := s[len(word)]
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
