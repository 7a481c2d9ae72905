package ptflow

// Variable is a bag of possible Bindings for one logical storage slot,
// along with the CFG nodes at which each binding is known to be
// assigned and a list of change listeners to notify when a genuinely
// new binding is appended.
//
// Bindings are stored in a slice for determinism: new bindings must be
// added through AddBinding or PasteVariable, never appended directly,
// so the slice and the identity index stay in sync.
type Variable struct {
	program *Program
	id      int

	bindings       []*Binding
	dataToBinding  map[any]*Binding
	nodeToBindings map[*CFGNode]map[*Binding]struct{}
	callbacks      []func()
}

func newVariable(program *Program, id int) *Variable {
	return &Variable{
		program:        program,
		id:             id,
		dataToBinding:  make(map[any]*Binding),
		nodeToBindings: make(map[*CFGNode]map[*Binding]struct{}),
	}
}

// ID returns this variable's monotonic, program-scoped id.
func (v *Variable) ID() int {
	return v.id
}

// AllBindings returns every binding this variable currently holds,
// regardless of CFG position. Most callers want the viewpoint-filtered
// BindingsAt instead.
func (v *Variable) AllBindings() []*Binding {
	out := make([]*Binding, len(v.bindings))
	copy(out, v.bindings)
	return out
}

// Data returns the opaque payloads of every binding this variable
// currently holds.
func (v *Variable) Data() []any {
	out := make([]any, len(v.bindings))
	for i, b := range v.bindings {
		out[i] = b.data
	}
	return out
}

// Nodes returns the set of CFG nodes at which this variable has at
// least one binding assigned.
func (v *Variable) Nodes() []*CFGNode {
	out := make([]*CFGNode, 0, len(v.nodeToBindings))
	for n := range v.nodeToBindings {
		out = append(out, n)
	}
	return out
}

func (v *Variable) findOrAddBinding(data any) *Binding {
	if len(v.bindings) >= MaxVarSize-1 {
		if _, ok := v.dataToBinding[data]; !ok {
			data = v.program.defaultData
		}
	}
	if binding, ok := v.dataToBinding[data]; ok {
		return binding
	}
	v.program.InvalidateSolver()
	binding := newBinding(v.program.newBindingID(), v.program, v, data)
	v.bindings = append(v.bindings, binding)
	v.dataToBinding[data] = binding
	for _, cb := range v.callbacks {
		cb()
	}
	v.program.metrics.VariableSize.Add(int64(len(v.bindings)))
	return binding
}

// AddBinding adds another possible value to this variable, identified by
// data's identity. Adding a payload that is already present (by
// identity) is a no-op that returns the existing binding: this will not
// overwrite the variable at its current CFG node, since it's legitimate
// for a variable to have multiple bindings assigned at the same node
// (e.g. a union type introduced there).
//
// Once the variable already holds MaxVarSize-1 distinct payloads, any
// further distinct payload collapses onto the Program's default data
// sentinel instead of growing the variable further (see MaxVarSize).
func (v *Variable) AddBinding(data any) *Binding {
	return v.findOrAddBinding(data)
}

// AddBindingAt is AddBinding followed by AddOrigin in one call: it
// records that data is assigned to this variable at where, with
// sourceSet as the (possibly empty) set of bindings that had to hold
// for that assignment.
func (v *Variable) AddBindingAt(data any, sourceSet SourceSet, where *CFGNode) *Binding {
	binding := v.findOrAddBinding(data)
	binding.AddOrigin(where, sourceSet)
	return binding
}

func (v *Variable) registerBindingAtNode(b *Binding, node *CFGNode) {
	set, ok := v.nodeToBindings[node]
	if !ok {
		set = make(map[*Binding]struct{})
		v.nodeToBindings[node] = set
	}
	set[b] = struct{}{}
}

// RegisterChangeListener registers a callback to run every time a
// genuinely new binding (one with a previously-unseen payload identity)
// is appended to this variable.
func (v *Variable) RegisterChangeListener(cb func()) {
	v.callbacks = append(v.callbacks, cb)
}

// BindingsAt filters this variable's bindings down to those visible
// from viewpoint by analyzing the CFG shape alone — it does not chase
// origin chains, so it's much cheaper (and less precise) than Filter.
// Any definition of this variable not reachable backward from viewpoint
// without passing through a later (shadowing) assignment is excluded.
func (v *Variable) BindingsAt(viewpoint *CFGNode) []*Binding {
	numBindings := len(v.bindings)
	if viewpoint == nil {
		return v.AllBindings()
	}
	if len(v.nodeToBindings) == 1 || numBindings == 1 {
		for n := range v.nodeToBindings {
			if viewpoint.reachableSubset.Test(uint(n.id)) {
				return v.AllBindings()
			}
		}
	}

	result := make(map[*Binding]struct{}, numBindings)
	seen := make(map[*CFGNode]struct{})
	stack := []*CFGNode{viewpoint}
	for len(stack) > 0 && len(result) < numBindings {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}
		if bindings, ok := v.nodeToBindings[node]; ok {
			if len(bindings) == 0 {
				panic(newInvariantError(EmptyNodeBindings, "variable node index"))
			}
			for b := range bindings {
				result[b] = struct{}{}
			}
			// Don't expand past a node that assigns this variable:
			// earlier assignments reaching this node are shadowed.
			continue
		}
		for n := range node.incoming {
			if _, ok := seen[n]; !ok {
				stack = append(stack, n)
			}
		}
	}
	out := make([]*Binding, 0, len(result))
	for b := range result {
		out = append(out, b)
	}
	return out
}

// DataAt is BindingsAt followed by unwrapping each binding's payload.
func (v *Variable) DataAt(viewpoint *CFGNode) []any {
	bindings := v.BindingsAt(viewpoint)
	out := make([]any, len(bindings))
	for i, b := range bindings {
		out[i] = b.data
	}
	return out
}

// Filter is like BindingsAt, but precise: it keeps only the bindings for
// which IsVisible(viewpoint) holds, which means consulting the solver.
func (v *Variable) Filter(viewpoint *CFGNode) []*Binding {
	out := make([]*Binding, 0, len(v.bindings))
	for _, b := range v.bindings {
		if b.IsVisible(viewpoint) {
			out = append(out, b)
		}
	}
	return out
}

// FilteredData is Filter followed by unwrapping each binding's payload.
func (v *Variable) FilteredData(viewpoint *CFGNode) []any {
	out := make([]any, 0, len(v.bindings))
	for _, b := range v.bindings {
		if b.IsVisible(viewpoint) {
			out = append(out, b.data)
		}
	}
	return out
}

// PasteVariable adds every binding of other to this variable, attaching
// each one at where. When a source binding's every origin already sits
// at where, its source sets are copied verbatim instead of wrapping
// them behind a new single-binding origin — this keeps the solver's
// origin chains shorter in the common "merge at the same node" case.
func (v *Variable) PasteVariable(other *Variable, where *CFGNode) {
	for _, binding := range other.bindings {
		copy := v.AddBinding(binding.data)

		allAtWhere := true
		for _, origin := range binding.origins {
			if origin.where != where {
				allAtWhere = false
				break
			}
		}
		if allAtWhere {
			for _, origin := range binding.origins {
				for _, ss := range origin.SourceSets() {
					copy.AddOrigin(origin.where, ss)
				}
			}
		} else {
			copy.AddOrigin(where, NewSourceSet(binding))
		}
	}
}

// AssignToNewVariable copies this variable into a brand-new one: every
// binding is re-created in the new variable with the same data, with
// the corresponding binding in this variable recorded as its sole
// source at where.
func (v *Variable) AssignToNewVariable(where *CFGNode) *Variable {
	nv := v.program.NewVariable(nil, SourceSet{}, nil)
	for _, binding := range v.bindings {
		nb := nv.AddBinding(binding.data)
		nb.AddOrigin(where, NewSourceSet(binding))
	}
	return nv
}
