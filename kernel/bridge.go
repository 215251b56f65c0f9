package kernel

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/hexcore/gml"
)

// The bridge round-trips GML trees through Lua tables. A body is a
// two-element array {name, {children…}}; an attribute is a one-entry table
// {[key] = value}. The bridge works on table values only and never leaves
// residue on the interpreter stack.

// configToLua encodes a config as an array of child nodes.
func configToLua(L *lua.LState, cfg gml.Config) *lua.LTable {
	out := L.NewTable()
	for _, n := range cfg {
		out.Append(nodeToLua(L, n))
	}
	return out
}

func nodeToLua(L *lua.LState, n gml.Node) lua.LValue {
	switch n := n.(type) {
	case *gml.Body:
		t := L.NewTable()
		t.Append(lua.LString(n.Name))
		t.Append(configToLua(L, n.Children))
		return t
	case gml.Attr:
		t := L.NewTable()
		t.RawSetString(n.Key, lua.LString(n.Value))
		return t
	}
	return lua.LNil
}

// configFromLua decodes an array of child nodes, validating shape. A
// violation aborts with a *ShapeError.
func configFromLua(v lua.LValue) (gml.Config, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, &ShapeError{Msg: fmt.Sprintf("config must be a table, got %s", v.Type())}
	}
	var cfg gml.Config
	for i := 1; ; i++ {
		child := tbl.RawGetInt(i)
		if child == lua.LNil {
			break
		}
		node, err := nodeFromLua(child)
		if err != nil {
			return nil, err
		}
		cfg = append(cfg, node)
	}
	return cfg, nil
}

func nodeFromLua(v lua.LValue) (gml.Node, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, &ShapeError{Msg: fmt.Sprintf("node must be a table, got %s", v.Type())}
	}

	// A body is a 2-array: string name at 1, children table at 2.
	if first := tbl.RawGetInt(1); first != lua.LNil {
		name, ok := first.(lua.LString)
		if !ok {
			return nil, &ShapeError{Msg: fmt.Sprintf("body name must be a string, got %s", first.Type())}
		}
		children := tbl.RawGetInt(2)
		kids, ok := children.(*lua.LTable)
		if !ok {
			return nil, &ShapeError{Msg: fmt.Sprintf("body children must be a table, got %s", children.Type())}
		}
		sub, err := configFromLua(kids)
		if err != nil {
			return nil, err
		}
		return &gml.Body{Name: string(name), Children: sub}, nil
	}

	// Otherwise a one-entry attribute table.
	var attr gml.Attr
	count := 0
	var shapeErr error
	tbl.ForEach(func(key, value lua.LValue) {
		count++
		ks, kok := key.(lua.LString)
		vs, vok := value.(lua.LString)
		if !kok || !vok {
			shapeErr = &ShapeError{Msg: "attribute key and value must be strings"}
			return
		}
		attr = gml.Attr{Key: string(ks), Value: string(vs)}
	})
	if shapeErr != nil {
		return nil, shapeErr
	}
	if count != 1 {
		return nil, &ShapeError{Msg: fmt.Sprintf("attribute table must hold exactly one entry, got %d", count)}
	}
	return attr, nil
}
