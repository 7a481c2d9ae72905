package ptflow

import "fmt"

// InvariantKind identifies the specific internal invariant an InvariantError
// reports. These are all "should never happen" conditions: either the
// engine has a bug, or a caller violated a precondition the public API
// documents.
type InvariantKind int

const (
	// DuplicateGoal means the same binding appeared twice in a goal set.
	DuplicateGoal InvariantKind = iota
	// ConflictingData means two distinct bindings for the same variable
	// carry identical data, which AddBinding's dedup-on-identity should
	// have prevented.
	ConflictingData
	// MissingSourceSet means NewVariable was given bindings but no where
	// node to anchor their origin at. AddOrigin itself cannot hit this,
	// since its (where, sourceSet) signature always carries a source set.
	MissingSourceSet
	// GoalNotInState means solverState.replace was asked to discharge a
	// goal that the state does not currently hold.
	GoalNotInState
	// EmptyNodeBindings means a Variable's per-node binding index holds an
	// entry for a node, but that entry contains no bindings.
	EmptyNodeBindings
	// NonMonotoneTopology means ConnectTo added an edge into a node that
	// already has outgoing edges, under Program.StrictTopology. The new
	// ancestors this edge introduces cannot retroactively reach that
	// node's descendants' cached reachableSubset (see CFGNode.ConnectTo).
	NonMonotoneTopology
)

func (k InvariantKind) String() string {
	switch k {
	case DuplicateGoal:
		return "duplicate goal"
	case ConflictingData:
		return "conflicting data across bindings"
	case MissingSourceSet:
		return "bindings given without a where node"
	case GoalNotInState:
		return "goal to expand not in state"
	case EmptyNodeBindings:
		return "empty binding list attached to a node"
	case NonMonotoneTopology:
		return "edge added out of topological order"
	default:
		return "unknown invariant violation"
	}
}

// InvariantError reports a violation of one of ptflow's internal
// invariants (see the Invariants columns of the data model). It signals a
// caller or engine bug, never a negative query result — a negative
// solver answer is a plain false, not an error. The engine raises an
// InvariantError by panicking with it as the panic value.
type InvariantError struct {
	Kind    InvariantKind
	Context string
}

func (e *InvariantError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("ptflow: internal error: %s", e.Kind)
	}
	return fmt.Sprintf("ptflow: internal error: %s: %s", e.Kind, e.Context)
}

func newInvariantError(kind InvariantKind, context string) *InvariantError {
	return &InvariantError{Kind: kind, Context: context}
}
