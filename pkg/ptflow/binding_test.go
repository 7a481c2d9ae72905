package ptflow

import "testing"

func TestAddBindingDedupsByIdentity(t *testing.T) {
	p := NewProgram(nil, nil)
	v := p.NewVariable(nil, SourceSet{}, nil)

	payload := "shared"
	b1 := v.AddBinding(payload)
	b2 := v.AddBinding(payload)

	if b1 != b2 {
		t.Fatal("expected AddBinding with the same payload identity to return the same Binding")
	}
}

func TestHasSourceDirect(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)

	w := p.NewVariable(nil, SourceSet{}, nil)
	s := w.AddBindingAt("s", SourceSet{}, n0)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", NewSourceSet(s), n1)

	if !a.HasSource(s) {
		t.Fatal("expected a.HasSource(s) to hold")
	}
}

func TestHasSourceTransitive(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)
	n2 := n1.ConnectNew("n2", nil)

	w := p.NewVariable(nil, SourceSet{}, nil)
	s := w.AddBindingAt("s", SourceSet{}, n0)

	u := p.NewVariable(nil, SourceSet{}, nil)
	mid := u.AddBindingAt("mid", NewSourceSet(s), n1)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", NewSourceSet(mid), n2)

	if !a.HasSource(s) {
		t.Fatal("expected transitive HasSource to find s through mid")
	}
}

func TestHasSourceCycleTerminates(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBinding("a")
	a.AddOrigin(n0, NewSourceSet(a))

	if !a.HasSource(a) {
		t.Fatal("expected a.HasSource(a) to hold trivially")
	}

	other := v.AddBinding("other")
	if a.HasSource(other) {
		t.Fatal("expected HasSource to terminate and report false for an unrelated binding")
	}
}

func TestFindOriginMissingReturnsFalse(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := p.NewCFGNode("n1", nil)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", SourceSet{}, n0)

	if _, ok := a.FindOrigin(n1); ok {
		t.Fatal("expected FindOrigin at an unrelated node to report false")
	}
}
