// Package query implements the search query language: a small
// expression grammar plus a set of inline "!command" directives
// extracted before parsing.
package query

import "strings"

// Kind tags a Node as one of the four AST shapes the grammar
// produces, per the tagged-variant design (Node = And([Node]) |
// Or([Node]) | Exact(string) | Term(string)).
type Kind int

const (
	KindAnd Kind = iota
	KindOr
	KindExact
	KindTerm
)

// Node is one AST node. Children is populated for KindAnd/KindOr;
// Text is populated for KindExact/KindTerm.
type Node struct {
	Kind     Kind
	Children []*Node
	Text     string
}

func newAnd(children []*Node) *Node {
	return &Node{Kind: KindAnd, Children: flatten(KindAnd, children)}
}

func newOr(children []*Node) *Node {
	return &Node{Kind: KindOr, Children: flatten(KindOr, children)}
}

// flatten merges any direct child of the same kind into the parent's
// child list in place, per the grammar's "nested AND/OR are
// flattened" rule — both operators are associative so this changes
// nothing about matching semantics.
func flatten(kind Kind, children []*Node) []*Node {
	out := make([]*Node, 0, len(children))
	for _, c := range children {
		if c.Kind == kind {
			out = append(out, c.Children...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// String renders the AST back to a canonical, parseable query
// string, used to build the rewritten form stored as the cache key
// and the "canonical query" surfaced in debug output.
func (n *Node) String() string {
	switch n.Kind {
	case KindExact:
		return `"` + strings.ReplaceAll(n.Text, `"`, `\"`) + `"`
	case KindTerm:
		return n.Text
	case KindAnd:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return strings.Join(parts, " ")
	case KindOr:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return strings.Join(parts, " OR ")
	default:
		return ""
	}
}

// Selector reports whether a KindTerm node is a user:/source: selector
// and returns its kind ("user" or "source") and prefix value.
func (n *Node) Selector() (kind, prefix string, ok bool) {
	if n.Kind != KindTerm {
		return "", "", false
	}
	for _, k := range [...]string{"user", "source"} {
		p := k + ":"
		if strings.HasPrefix(n.Text, p) {
			return k, strings.TrimPrefix(n.Text, p), true
		}
	}
	return "", "", false
}

// Leaves flattens the AST into the list of ANDed search strings used
// by retrieval stage 1: OR branches fan out into multiple strings, AND
// branches cartesian-join their children's strings.
func (n *Node) Leaves() []string {
	switch n.Kind {
	case KindExact, KindTerm:
		return []string{n.Text}
	case KindOr:
		var out []string
		for _, c := range n.Children {
			out = append(out, c.Leaves()...)
		}
		return out
	case KindAnd:
		acc := []string{""}
		for _, c := range n.Children {
			childLeaves := c.Leaves()
			var next []string
			for _, a := range acc {
				for _, l := range childLeaves {
					if a == "" {
						next = append(next, l)
					} else {
						next = append(next, a+" "+l)
					}
				}
			}
			acc = next
		}
		return acc
	default:
		return nil
	}
}
