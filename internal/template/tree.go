package template

import (
	"strings"

	"qbxml-mapper/internal/schema"
)

// Node is a position in the template tree.
type Node struct {
	Type     *schema.NodeType
	Parent   *Node
	Children []*Node
	Depth    int
}

// Path returns the descriptors from the root down to n.
func (n *Node) Path() Path {
	path := make(Path, n.Depth+1)
	for cur := n; cur != nil; cur = cur.Parent {
		path[cur.Depth] = cur.Type
	}

	return path
}

// Tree is the template tree of a model. It is immutable once built.
type Tree struct {
	root  *Node
	index map[string][]*Node
	size  int
}

// Build expands the model into its template tree. The model must be acyclic,
// which schema.NewModel guarantees.
func Build(m *schema.Model) *Tree {
	t := &Tree{index: map[string][]*Node{}}
	t.root = t.expand(m, m.RootType(), nil, 0)

	return t
}

func (t *Tree) expand(m *schema.Model, nt *schema.NodeType, parent *Node, depth int) *Node {
	n := &Node{Type: nt, Parent: parent, Depth: depth}
	t.index[nt.Name] = append(t.index[nt.Name], n)
	t.size++

	for _, c := range nt.Children {
		ct, _ := m.Type(c.Name)
		n.Children = append(n.Children, t.expand(m, ct, n, depth+1))
	}

	return n
}

// Root returns the container position.
func (t *Tree) Root() *Node {
	return t.root
}

// Size returns the number of positions in the tree.
func (t *Tree) Size() int {
	return t.size
}

// Positions returns every position of the named type in depth-first order.
func (t *Tree) Positions(name string) []*Node {
	return t.index[name]
}

// Walk visits positions depth-first, parents before children. Returning
// false from fn skips the position's subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(*Node)

	visit = func(n *Node) {
		if !fn(n) {
			return
		}

		for _, c := range n.Children {
			visit(c)
		}
	}

	visit(t.root)
}

// Path is a chain of descriptors from the container root to a target type.
type Path []*schema.NodeType

// Target returns the last descriptor of the path.
func (p Path) Target() *schema.NodeType {
	if len(p) == 0 {
		return nil
	}

	return p[len(p)-1]
}

// Names returns the type names along the path.
func (p Path) Names() []string {
	names := make([]string, len(p))
	for i, t := range p {
		names[i] = t.Name
	}

	return names
}

// String renders the path as "QBXML/QBXMLMsgsRq/InvoiceAddRq".
func (p Path) String() string {
	return strings.Join(p.Names(), Separator)
}
