package ptflow

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"
)

// CFGNode is a vertex in the control-flow graph. Assignments within one
// CFGNode are unordered: if two bindings for the same variable are both
// assigned at the same node, both are visible from inside that node.
type CFGNode struct {
	program *Program
	id      int
	name    string

	incoming map[*CFGNode]struct{}
	outgoing map[*CFGNode]struct{}
	bindings map[*Binding]struct{}

	// reachableSubset is the set of node ids reachable going backwards
	// from this node, including itself. It is maintained incrementally
	// by ConnectTo: see ConnectTo's note on edge-monotone construction
	// and Program.StrictTopology.
	reachableSubset *bitset.BitSet

	// condition, if non-nil, is the binding that must be visible for
	// execution to have taken the branch represented by this node.
	condition *Binding
}

func newCFGNode(program *Program, name string, id int, condition *Binding) *CFGNode {
	n := &CFGNode{
		program:         program,
		id:              id,
		name:            name,
		incoming:        make(map[*CFGNode]struct{}),
		outgoing:        make(map[*CFGNode]struct{}),
		bindings:        make(map[*Binding]struct{}),
		reachableSubset: bitset.New(0),
		condition:       condition,
	}
	n.reachableSubset.Set(uint(id))
	return n
}

// ID returns this node's dense, creation-order id.
func (n *CFGNode) ID() int {
	return n.id
}

// Name returns this node's display name, for debugging.
func (n *CFGNode) Name() string {
	return n.name
}

// Condition returns the guard binding for this node, if any.
func (n *CFGNode) Condition() *Binding {
	return n.condition
}

// Incoming returns the nodes with an edge directly into this node.
func (n *CFGNode) Incoming() []*CFGNode {
	out := make([]*CFGNode, 0, len(n.incoming))
	for m := range n.incoming {
		out = append(out, m)
	}
	return out
}

// Outgoing returns the nodes this node has a direct edge to.
func (n *CFGNode) Outgoing() []*CFGNode {
	out := make([]*CFGNode, 0, len(n.outgoing))
	for m := range n.outgoing {
		out = append(out, m)
	}
	return out
}

// ConnectNew allocates a new node in the same Program and connects this
// node to it.
func (n *CFGNode) ConnectNew(name string, condition *Binding) *CFGNode {
	next := n.program.NewCFGNode(name, condition)
	n.ConnectTo(next)
	return next
}

// ConnectTo adds a directed edge from this node to target and
// invalidates the program's solver. It also propagates reachability:
// target's reachableSubset absorbs this node's reachableSubset.
//
// This only updates target directly, not target's descendants. Callers
// must build the CFG edge-monotone (i.e. add edge u->v only once v has
// no outgoing edges yet that would need the update too) or the cached
// ancestor sets of nodes beyond target will go stale. See program.go's
// StrictTopology flag for a debug-mode check of this precondition.
func (n *CFGNode) ConnectTo(target *CFGNode) {
	n.program.InvalidateSolver()
	n.outgoing[target] = struct{}{}
	target.incoming[n] = struct{}{}
	target.reachableSubset.InPlaceUnion(n.reachableSubset)
	if n.program.StrictTopology {
		n.program.checkTopology(n, target)
	}
}

// CanHaveCombination is a cheap, over-approximate version of
// HasCombination: it walks incoming edges striking off goal bindings as
// they're found, ignoring conditions entirely. A false result is
// conclusive; a true result still needs HasCombination to confirm.
func (n *CFGNode) CanHaveCombination(bindings []*Binding) bool {
	goals := make(map[*Binding]struct{}, len(bindings))
	for _, b := range bindings {
		goals[b] = struct{}{}
	}
	seen := make(map[*CFGNode]struct{})
	stack := []*CFGNode{n}
	for len(stack) > 0 && len(goals) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}
		for b := range node.bindings {
			delete(goals, b)
		}
		for m := range node.incoming {
			stack = append(stack, m)
		}
	}
	return len(goals) == 0
}

// HasCombination asks the solver whether every binding in bindings could
// be simultaneously assigned on some path reaching this node. It first
// rejects if any single binding is individually impossible here, which
// is cheap and catches the common case before trying the full
// combination.
func (n *CFGNode) HasCombination(bindings []*Binding) bool {
	n.program.CreateSolver()
	for _, b := range bindings {
		if !n.program.solver.Solve(map[*Binding]struct{}{b: {}}, n) {
			return false
		}
	}
	goals := make(map[*Binding]struct{}, len(bindings))
	for _, b := range bindings {
		goals[b] = struct{}{}
	}
	return n.program.solver.Solve(goals, n)
}

func (n *CFGNode) registerBinding(b *Binding) {
	n.bindings[b] = struct{}{}
}

// Bindings returns the bindings directly assigned at this node.
func (n *CFGNode) Bindings() []*Binding {
	out := make([]*Binding, 0, len(n.bindings))
	for b := range n.bindings {
		out = append(out, b)
	}
	return out
}

// Label returns a short "<id>name" string for debugging output.
func (n *CFGNode) Label() string {
	return "<" + strconv.Itoa(n.id) + ">" + n.name
}
