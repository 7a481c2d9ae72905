package ptflow

// Binding asserts that a Variable takes on one specific, opaque value.
// Depending on context a Binding is also called a "source" (when used to
// construct another binding) or a "goal" (when the solver is trying to
// prove it reachable).
//
// A Binding remembers its own history through Origins: where it was
// assigned, and (through each Origin's SourceSets) what other bindings
// had to hold for that assignment to happen.
type Binding struct {
	id       int // monotonic, used only to order goals deterministically
	program  *Program
	variable *Variable
	data     any

	origins      []*Origin
	nodeToOrigin map[*CFGNode]*Origin
}

func newBinding(id int, program *Program, variable *Variable, data any) *Binding {
	return &Binding{
		id:           id,
		program:      program,
		variable:     variable,
		data:         data,
		nodeToOrigin: make(map[*CFGNode]*Origin),
	}
}

// Variable returns the Variable this binding belongs to.
func (b *Binding) Variable() *Variable {
	return b.variable
}

// Data returns the opaque payload this binding carries.
func (b *Binding) Data() any {
	return b.data
}

// FindOrigin returns the Origin this binding has at the given node, if
// any.
func (b *Binding) FindOrigin(where *CFGNode) (*Origin, bool) {
	o, ok := b.nodeToOrigin[where]
	return o, ok
}

func (b *Binding) findOrAddOrigin(where *CFGNode) *Origin {
	if origin, ok := b.nodeToOrigin[where]; ok {
		return origin
	}
	origin := newOrigin(where)
	b.origins = append(b.origins, origin)
	b.nodeToOrigin[where] = origin
	b.variable.registerBindingAtNode(b, where)
	where.registerBinding(b)
	return origin
}

// AddOrigin records another possible way this binding can be produced:
// at CFG node where, via sourceSet. Calling AddOrigin always invalidates
// the program's solver, since it can change the answer to any pending
// query.
func (b *Binding) AddOrigin(where *CFGNode, sourceSet SourceSet) {
	b.program.InvalidateSolver()
	origin := b.findOrAddOrigin(where)
	origin.AddSourceSet(sourceSet)
}

// Origins returns all origins recorded for this binding. The order
// matches the order AddOrigin first established them in.
func (b *Binding) Origins() []*Origin {
	out := make([]*Origin, len(b.origins))
	copy(out, b.origins)
	return out
}

// IsVisible asks whether there is at least one path through the program
// ending at viewpoint along which this binding was assigned (and not
// overwritten), with every binding it transitively depends on likewise
// assigned and not overwritten, and every guard along the way
// satisfied.
func (b *Binding) IsVisible(viewpoint *CFGNode) bool {
	b.program.CreateSolver()
	return b.program.solver.Solve(map[*Binding]struct{}{b: {}}, viewpoint)
}

// AssignToNewVariable creates a brand-new single-binding Variable whose
// one binding carries this binding's data, with this binding recorded
// as its sole source at where.
func (b *Binding) AssignToNewVariable(where *CFGNode) *Variable {
	v := b.program.NewVariable(nil, SourceSet{}, nil)
	nb := v.AddBinding(b.data)
	nb.AddOrigin(where, NewSourceSet(b))
	return v
}

// HasSource reports whether other appears anywhere in this binding's
// transitive provenance (the origins' source sets, recursively). A
// visited set guards against infinite recursion on self-supporting
// (cyclic) provenance.
func (b *Binding) HasSource(other *Binding) bool {
	return b.hasSource(other, make(map[*Binding]struct{}))
}

func (b *Binding) hasSource(other *Binding, visited map[*Binding]struct{}) bool {
	if b == other {
		return true
	}
	if _, seen := visited[b]; seen {
		return false
	}
	visited[b] = struct{}{}
	for _, origin := range b.origins {
		for _, sourceSet := range origin.SourceSets() {
			for _, source := range sourceSet.Bindings() {
				if source.hasSource(other, visited) {
					return true
				}
			}
		}
	}
	return false
}
