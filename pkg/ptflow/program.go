package ptflow

// MaxVarSize bounds how many distinct payloads a single Variable may
// hold. Past this point, any further distinct payload collapses onto
// the Program's default data sentinel instead of growing the variable,
// trading precision for a bound on worst-case solver fan-out.
const MaxVarSize = 64

// Program is the root registry for one analysis run: it owns every CFG
// node and variable, hands out monotonic ids, and lazily owns the
// Solver. Exactly one Program exists per analysis; nothing it owns is
// ever destroyed before the Program itself is discarded.
type Program struct {
	entrypoint *CFGNode
	cfgNodes   []*CFGNode
	variables  []*Variable

	nextVariableID int
	nextBindingID  int

	solver *Solver

	// defaultData is the sentinel payload that overflowing bindings
	// (see MaxVarSize) collapse onto.
	defaultData any

	metrics *Metrics

	// StrictTopology, when true, makes ConnectTo panic with a
	// NonMonotoneTopology InvariantError if an edge is added into a node
	// that already has descendants relying on a stale reachableSubset.
	// Off by default to match the upstream engine's behavior exactly
	// (silently stale rather than rejected); see node.go's ConnectTo.
	StrictTopology bool
}

// NewProgram creates a new, empty Program. defaultData is the sentinel
// payload used when a Variable overflows MaxVarSize; metrics may be nil,
// in which case a fresh Metrics is created for this Program.
func NewProgram(defaultData any, metrics *Metrics) *Program {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Program{
		defaultData: defaultData,
		metrics:     metrics,
	}
}

// Entrypoint returns the program's entry node, if one has been set.
func (p *Program) Entrypoint() *CFGNode {
	return p.entrypoint
}

// SetEntrypoint records node as this program's entry point.
func (p *Program) SetEntrypoint(node *CFGNode) {
	p.entrypoint = node
}

// DefaultData returns the sentinel payload used for overflow collapse.
func (p *Program) DefaultData() any {
	return p.defaultData
}

// Metrics returns the metrics capability this program writes to.
func (p *Program) Metrics() *Metrics {
	return p.metrics
}

// CreateSolver lazily constructs this program's Solver if it doesn't
// already have one. Every query operation calls this before use.
func (p *Program) CreateSolver() {
	if p.solver == nil {
		p.solver = newSolver(p)
	}
}

// InvalidateSolver discards the current solver (and with it, its memo
// and path-finder caches). Called by every graph mutation: NewCFGNode,
// ConnectTo, AddBinding (when it appends a new binding), and AddOrigin.
func (p *Program) InvalidateSolver() {
	p.solver = nil
}

// NewCFGNode allocates a node with the next id, appends it to the
// program's node list, and invalidates the solver.
func (p *Program) NewCFGNode(name string, condition *Binding) *CFGNode {
	p.InvalidateSolver()
	node := newCFGNode(p, name, len(p.cfgNodes), condition)
	p.cfgNodes = append(p.cfgNodes, node)
	return node
}

// CFGNodes returns every node this program owns, in creation order.
func (p *Program) CFGNodes() []*CFGNode {
	out := make([]*CFGNode, len(p.cfgNodes))
	copy(out, p.cfgNodes)
	return out
}

func (p *Program) newBindingID() int {
	id := p.nextBindingID
	p.nextBindingID++
	return id
}

// NewVariable allocates a new Variable. A Variable typically models a
// "union type" — a disjunction of possible values. This constructor
// assumes every binding in bindings shares the same origin(s); if that's
// not the case, pass a nil bindings slice and build the variable up
// with AddBinding/AddBindingAt instead.
//
// If bindings is non-empty, where must be non-nil (sourceSet, being a
// value type, is always well-formed — an empty SourceSet is a valid,
// unconditional origin).
func (p *Program) NewVariable(bindings []any, sourceSet SourceSet, where *CFGNode) *Variable {
	v := newVariable(p, p.nextVariableID)
	p.nextVariableID++
	p.variables = append(p.variables, v)
	if len(bindings) > 0 {
		if where == nil {
			panic(newInvariantError(MissingSourceSet, "NewVariable: bindings given without a where"))
		}
		for _, data := range bindings {
			binding := v.AddBinding(data)
			binding.AddOrigin(where, sourceSet)
		}
	}
	return v
}

// Variables returns every variable this program has allocated.
func (p *Program) Variables() []*Variable {
	out := make([]*Variable, len(p.variables))
	copy(out, p.variables)
	return out
}

// MergeVariables builds a combined Variable for a list of variables,
// typically to produce a single result variable for something that
// yielded several "temporary" variables (e.g. the branches of a call).
//
//   - an empty list yields a fresh, empty variable;
//   - a single-element list returns that variable unchanged;
//   - a list where every element is the same variable returns it
//     unchanged;
//   - otherwise, a fresh variable is created and every input variable is
//     pasted into it at node.
func (p *Program) MergeVariables(node *CFGNode, variables []*Variable) *Variable {
	if len(variables) == 0 {
		return p.NewVariable(nil, SourceSet{}, nil)
	}
	if len(variables) == 1 {
		return variables[0]
	}
	allSame := true
	for _, v := range variables {
		if v != variables[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return variables[0]
	}
	merged := p.NewVariable(nil, SourceSet{}, nil)
	for _, v := range variables {
		merged.PasteVariable(v, node)
	}
	return merged
}

func (p *Program) checkTopology(from, target *CFGNode) {
	if len(target.outgoing) > 0 {
		// target already had outgoing edges before this call added
		// `from` to its incoming set: any node reachable through those
		// existing outgoing edges computed its reachableSubset before
		// `from`'s ancestors were part of target's own reachableSubset.
		panic(newInvariantError(NonMonotoneTopology, target.Label()))
	}
}
