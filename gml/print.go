package gml

import (
	"fmt"
	"io"
	"strings"
)

// Print writes nodes as GML text that re-parses to the same tree. Bodies are
// indented one tab per nesting level.
func Print(w io.Writer, cfg Config) error {
	for _, n := range cfg {
		if err := printNode(w, n, 0); err != nil {
			return err
		}
	}
	return nil
}

// String renders a body as GML text.
func (b *Body) String() string {
	var sb strings.Builder
	printNode(&sb, b, 0)
	return sb.String()
}

func printNode(w io.Writer, n Node, depth int) error {
	indent := strings.Repeat("\t", depth)
	switch n := n.(type) {
	case *Body:
		if _, err := fmt.Fprintf(w, "%s[%s]\n", indent, n.Name); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := printNode(w, c, depth+1); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s[/%s]\n", indent, n.Name); err != nil {
			return err
		}
	case Attr:
		if _, err := fmt.Fprintf(w, "%s%s=%s\n", indent, n.Key, quoteValue(n.Value)); err != nil {
			return err
		}
	}
	return nil
}

// quoteValue picks the weakest quoting that survives a round trip: raw when
// the value has no delimiters and no surrounding space, double quotes when it
// merely needs wrapping, and an angle-string when it contains a double quote.
func quoteValue(v string) string {
	if strings.Contains(v, `"`) {
		// A quoted string may not contain '"'; fall back to an angle-string.
		// Values containing both '"' and '>>' are not representable.
		return "<<" + v + ">>"
	}
	if v == "" ||
		strings.ContainsAny(v, "\n[{}#") ||
		strings.Contains(v, "<<") ||
		v != strings.Trim(v, " \t\r") ||
		v[0] == '_' {
		return `"` + v + `"`
	}
	return v
}
