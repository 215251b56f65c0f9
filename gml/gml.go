// Package gml reads and writes the declarative markup language used for
// scenario files and persisted state: tagged bodies containing key=value
// attribute lines and nested tags.
//
// The tree is a tagged union: a Node is either a *Body (a named tag with
// children) or an Attr (a key/value string pair). A Config is the top-level
// list of nodes.
package gml

// Node is a single element of a GML tree.
type Node interface {
	node()
}

// Body is a tag with a name and child nodes.
type Body struct {
	Name     string
	Children []Node
}

// Attr is a key=value attribute.
type Attr struct {
	Key   string
	Value string
}

func (*Body) node() {}
func (Attr) node()  {}

// Config is a top-level list of nodes.
type Config []Node

// Find returns the first child body with the given name, or nil.
func (b *Body) Find(name string) *Body {
	for _, n := range b.Children {
		if c, ok := n.(*Body); ok && c.Name == name {
			return c
		}
	}
	return nil
}

// Get returns the value of the first attribute with the given key.
func (b *Body) Get(key string) (string, bool) {
	for _, n := range b.Children {
		if a, ok := n.(Attr); ok && a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Bodies returns all child bodies with the given name.
func (b *Body) Bodies(name string) []*Body {
	var out []*Body
	for _, n := range b.Children {
		if c, ok := n.(*Body); ok && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
