package query

import (
	"fmt"
	"sort"
	"strings"
)

// Direction selects which edges a leaf traversal follows from its root.
type Direction int

const (
	// DirSub walks category membership downward (members and subcategories).
	DirSub Direction = iota
	// DirSuper walks category membership upward (parent categories).
	DirSuper
	// DirLinksIn walks inbound wiki links (pages linking here).
	DirLinksIn
	// DirLinksOut walks outbound wiki links (pages linked from here).
	DirLinksOut
)

func (d Direction) String() string {
	switch d {
	case DirSub:
		return "sub"
	case DirSuper:
		return "super"
	case DirLinksIn:
		return "in"
	case DirLinksOut:
		return "out"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// DepthUnbounded marks a leaf with no user depth limit. The solver still
// applies its global safety cap.
const DepthUnbounded = -1

// Node is an expression tree node. Trees are immutable after Parse and are
// shared read-only across solves.
//
// Key returns the canonical printed form of the subtree. Two nodes are
// structurally equal iff their keys are equal; the solver uses keys for
// per-solve memoization.
type Node interface {
	Key() string
	node()
}

// Leaf names a single traversal root: a page or category title, an edge
// direction and an optional depth limit.
type Leaf struct {
	Title string // normalized at parse time
	Depth int    // DepthUnbounded or >= 0
	Dir   Direction
}

// Modifier wraps a child node with a named, schema-validated transform.
// Params are stored in schema order.
type Modifier struct {
	Name   string
	Params []Param
	Child  Node
}

// ParamKind is the declared type of a modifier parameter.
type ParamKind int

const (
	KindString ParamKind = iota
	KindNumber
	KindBool
)

// Param is one typed modifier argument. Exactly one of Str/Num/Bool is
// meaningful, selected by Kind.
type Param struct {
	Name string
	Kind ParamKind
	Str  string
	Num  int
	Bool bool
}

func (p Param) valueString() string {
	switch p.Kind {
	case KindString:
		return fmt.Sprintf("%q", p.Str)
	case KindNumber:
		return fmt.Sprintf("%d", p.Num)
	case KindBool:
		return fmt.Sprintf("%t", p.Bool)
	}
	return "?"
}

// Op is a binary set operation.
type Op int

const (
	OpUnion Op = iota
	OpIntersect
	OpDifference // left minus right, not commutative
)

func (o Op) String() string {
	switch o {
	case OpUnion:
		return "+"
	case OpIntersect:
		return "&"
	case OpDifference:
		return "-"
	}
	return "?"
}

// Binary combines two subtrees with a set operation.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

// Negate is the complement of its child within the universe supplied by the
// other operand of the enclosing intersection or difference. The parser
// guarantees it never appears anywhere else.
type Negate struct {
	Child Node
}

func (*Leaf) node()     {}
func (*Modifier) node() {}
func (*Binary) node()   {}
func (*Negate) node()   {}

// Key implements Node. The canonical form omits default depth/direction so
// that "X", "X[dir=sub]" and "X[depth=-1]" all collapse to the same key.
func (l *Leaf) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q", l.Title)
	var opts []string
	if l.Depth != DepthUnbounded {
		opts = append(opts, fmt.Sprintf("depth=%d", l.Depth))
	}
	if l.Dir != DirSub {
		opts = append(opts, "dir="+l.Dir.String())
	}
	if len(opts) > 0 {
		b.WriteString("[" + strings.Join(opts, ", ") + "]")
	}
	return b.String()
}

// Key implements Node.
func (m *Modifier) Key() string {
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = p.Name + "=" + p.valueString()
	}
	return fmt.Sprintf("%s|%s(%s)", operand(m.Child), m.Name, strings.Join(args, ", "))
}

// Key implements Node.
func (b *Binary) Key() string {
	return fmt.Sprintf("%s %s %s", operand(b.Left), b.Op, operand(b.Right))
}

// Key implements Node.
func (n *Negate) Key() string {
	return "!" + operand(n.Child)
}

// operand prints a child, parenthesizing nested binaries so the canonical
// form re-parses to a structurally equal tree regardless of precedence.
func operand(n Node) string {
	if _, ok := n.(*Binary); ok {
		return "(" + n.Key() + ")"
	}
	return n.Key()
}

// String returns the canonical query text. Parsing it yields a tree
// structurally equal to n.
func String(n Node) string { return n.Key() }

// Equal reports structural equality of two trees.
func Equal(a, b Node) bool { return a.Key() == b.Key() }

// Walk calls fn for every node in the tree in pre-order.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch v := n.(type) {
	case *Modifier:
		Walk(v.Child, fn)
	case *Binary:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *Negate:
		Walk(v.Child, fn)
	}
}

// Leaves returns the distinct leaf keys of a tree in sorted order,
// for reporting which roots a query depends on.
func Leaves(n Node) []string {
	seen := map[string]bool{}
	Walk(n, func(m Node) {
		if l, ok := m.(*Leaf); ok {
			seen[l.Key()] = true
		}
	})
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
