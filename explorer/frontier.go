package explorer

import (
	"fmt"

	"github.com/teranos/cbindgen/frontend"
)

// NodeKind is what a discovery node turned out to be
type NodeKind int

const (
	NodeFunction NodeKind = iota
	NodeVariable
	NodeRecord
	NodeEnum
	NodeTypedef
	NodeFunctionPointer
	NodePointer
	NodePrimitive
	NodeArray
	NodeMacro
	NodeOpaque
)

var nodeKindNames = [...]string{
	NodeFunction:        "function",
	NodeVariable:        "variable",
	NodeRecord:          "record",
	NodeEnum:            "enum",
	NodeTypedef:         "typedef",
	NodeFunctionPointer: "function-pointer",
	NodePointer:         "pointer",
	NodePrimitive:       "primitive",
	NodeArray:           "array",
	NodeMacro:           "macro",
	NodeOpaque:          "opaque",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("node(%d)", int(k))
}

// node is one pending unit of discovery. Parent indexes the arena, -1 for roots.
type node struct {
	cursor  frontend.Cursor
	typ     frontend.Type
	parent  int
	kind    NodeKind
	name    string
	typedef bool // function pointer named by a typedef
}

// frontier is an arena of discovery nodes with a LIFO stack of indices
type frontier struct {
	arena []node
	stack []int
}

func (f *frontier) push(n node) int {
	idx := len(f.arena)
	f.arena = append(f.arena, n)
	f.stack = append(f.stack, idx)
	return idx
}

func (f *frontier) pop() (int, bool) {
	if len(f.stack) == 0 {
		return -1, false
	}
	last := len(f.stack) - 1
	idx := f.stack[last]
	f.stack = f.stack[:last]
	return idx, true
}

func (f *frontier) node(idx int) *node {
	return &f.arena[idx]
}

// TraceEntry records one processed node, in processing order
type TraceEntry struct {
	Kind   NodeKind
	Name   string
	Parent string
}
