package ptflow

import "testing"

func TestSolverStateKeyIgnoresGoalOrder(t *testing.T) {
	p := NewProgram(nil, nil)
	n := p.NewCFGNode("n", nil)
	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBinding("a")
	b := v.AddBinding("b")

	s1 := newSolverState(n, map[*Binding]struct{}{a: {}, b: {}})
	s2 := newSolverState(n, map[*Binding]struct{}{b: {}, a: {}})
	if s1.key() != s2.key() {
		t.Fatalf("expected identical keys regardless of goal insertion order, got %q vs %q", s1.key(), s2.key())
	}
}

func TestGoalsConflictSameVariableDistinctData(t *testing.T) {
	p := NewProgram(nil, nil)
	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBinding("a")
	b := v.AddBinding("b")

	if !goalsConflict(map[*Binding]struct{}{a: {}, b: {}}) {
		t.Fatal("expected two distinct bindings of the same variable to conflict")
	}
}

func TestGoalsConflictDistinctVariablesNoConflict(t *testing.T) {
	p := NewProgram(nil, nil)
	v1 := p.NewVariable(nil, SourceSet{}, nil)
	v2 := p.NewVariable(nil, SourceSet{}, nil)
	a := v1.AddBinding("a")
	b := v2.AddBinding("b")

	if goalsConflict(map[*Binding]struct{}{a: {}, b: {}}) {
		t.Fatal("expected bindings of distinct variables not to conflict")
	}
}

func TestSolveUnconditionalBindingVisible(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", SourceSet{}, n0)

	if !a.IsVisible(n1) {
		t.Fatal("expected an unconditional binding to remain visible at a descendant node")
	}
}

func TestSolveShadowedBindingNotVisible(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)
	n2 := n1.ConnectNew("n2", nil)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", SourceSet{}, n0)
	v.AddBindingAt("b", SourceSet{}, n1)

	if a.IsVisible(n2) {
		t.Fatal("expected the shadowed earlier binding not to be visible past the reassignment")
	}
}

func TestSolveConditionalGuardPropagates(t *testing.T) {
	p := NewProgram(nil, nil)
	cv := p.NewVariable(nil, SourceSet{}, nil)
	guard := cv.AddBinding(true)

	n0 := p.NewCFGNode("n0", nil)
	guard.AddOrigin(n0, SourceSet{})
	n1 := n0.ConnectNew("n1", guard)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", SourceSet{}, n1)

	if !a.IsVisible(n1) {
		t.Fatal("expected a to be visible where its guard holds")
	}
}

func TestSolveOriginChainRequiresSourceVisible(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)

	w := p.NewVariable(nil, SourceSet{}, nil)
	s := w.AddBindingAt("s", SourceSet{}, n0)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", NewSourceSet(s), n1)

	if !a.IsVisible(n1) {
		t.Fatal("expected a visible at n1 since its sole source s is visible there")
	}
}

func TestSolveCyclicProvenanceTerminates(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBinding("a")
	a.AddOrigin(n0, NewSourceSet(a))

	if !a.IsVisible(n0) {
		t.Fatal("expected the self-supporting cycle to terminate and be treated as reachable")
	}
}
