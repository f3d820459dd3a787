package chart

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cleared-dev/balancete/internal/model"
)

// Node is one account in the chart hierarchy.
type Node struct {
	Account  model.Account
	Parent   *Node
	Children []*Node // sorted by code
}

// Tree indexes active accounts by dotted code. The parent of an account is
// the active account whose code is the longest proper dotted prefix of its own.
type Tree struct {
	nodes      []*Node // all nodes, sorted by code
	byCode     map[string]*Node
	byID       map[string]*Node
	roots      []*Node
	duplicates []model.Account
}

// Build indexes the active accounts of a flat chart. Inactive accounts are
// left out, so their children attach to the nearest active ancestor.
// The result does not depend on input order.
func Build(accounts []model.Account) *Tree {
	active := make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if c := CompareCodes(active[i].Code, active[j].Code); c != 0 {
			return c < 0
		}
		return active[i].ID < active[j].ID
	})

	t := &Tree{
		nodes:  make([]*Node, 0, len(active)),
		byCode: make(map[string]*Node, len(active)),
		byID:   make(map[string]*Node, len(active)),
	}
	for _, a := range active {
		if _, dup := t.byCode[a.Code]; dup {
			t.duplicates = append(t.duplicates, a)
			continue
		}
		n := &Node{Account: a}
		t.nodes = append(t.nodes, n)
		t.byCode[a.Code] = n
		t.byID[a.ID] = n
	}

	// Nodes are in code order, so children are appended already sorted.
	for _, n := range t.nodes {
		parent := t.findParent(n.Account.Code)
		if parent == nil {
			t.roots = append(t.roots, n)
			continue
		}
		n.Parent = parent
		n.Account.ParentID = parent.Account.ID
		parent.Children = append(parent.Children, n)
	}
	return t
}

func (t *Tree) findParent(code string) *Node {
	prefix := code
	for {
		i := strings.LastIndexByte(prefix, '.')
		if i < 0 {
			return nil
		}
		prefix = prefix[:i]
		if p, ok := t.byCode[prefix]; ok {
			return p
		}
	}
}

// Get returns the node for a code.
func (t *Tree) Get(code string) (*Node, bool) {
	n, ok := t.byCode[code]
	return n, ok
}

// ByID returns the node for an account ID.
func (t *Tree) ByID(id string) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Len returns the number of indexed accounts.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Roots returns the top-level accounts in code order.
func (t *Tree) Roots() []*Node {
	return t.roots
}

// Children returns the direct children of code.
func (t *Tree) Children(code string) []*Node {
	if n, ok := t.byCode[code]; ok {
		return n.Children
	}
	return nil
}

// Parent returns the parent of code, or nil for roots and unknown codes.
func (t *Tree) Parent(code string) *Node {
	if n, ok := t.byCode[code]; ok {
		return n.Parent
	}
	return nil
}

// Ancestors returns the ancestors of code, nearest first.
func (t *Tree) Ancestors(code string) []*Node {
	n, ok := t.byCode[code]
	if !ok {
		return nil
	}
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Accounts returns the indexed accounts in code order, with ParentID filled in.
func (t *Tree) Accounts() []model.Account {
	out := make([]model.Account, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.Account
	}
	return out
}

// Duplicates returns accounts dropped because another active account
// already used the same code.
func (t *Tree) Duplicates() []model.Account {
	return t.duplicates
}

// Walk visits every node in pre-order (parents before children, code order).
func (t *Tree) Walk(fn func(n *Node)) {
	for _, r := range t.roots {
		walkPre(r, fn)
	}
}

// WalkPost visits every node in post-order (children before parents).
func (t *Tree) WalkPost(fn func(n *Node)) {
	for _, r := range t.roots {
		walkPost(r, fn)
	}
}

func walkPre(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		walkPre(c, fn)
	}
}

func walkPost(n *Node, fn func(*Node)) {
	for _, c := range n.Children {
		walkPost(c, fn)
	}
	fn(n)
}

// AnalyticalDescendants returns the postable accounts under code, including
// code itself when it is analytical.
func (t *Tree) AnalyticalDescendants(code string) []model.Account {
	n, ok := t.byCode[code]
	if !ok {
		return nil
	}
	var out []model.Account
	walkPre(n, func(d *Node) {
		if d.Account.IsAnalytical() {
			out = append(out, d.Account)
		}
	})
	return out
}

// CompareCodes orders dotted codes segment by segment, numerically when both
// segments are numbers, so "1.9" sorts before "1.10".
func CompareCodes(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

func compareSegment(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
	}
	return strings.Compare(a, b)
}
