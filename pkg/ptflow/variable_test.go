package ptflow

import "testing"

func TestBindingsAtLinearChain(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)
	n2 := n1.ConnectNew("n2", nil)

	v := p.NewVariable(nil, SourceSet{}, nil)
	v.AddBindingAt("a", SourceSet{}, n0)
	b := v.AddBindingAt("b", SourceSet{}, n1)

	got := v.BindingsAt(n2)
	if len(got) != 1 || got[0] != b {
		t.Fatalf("expected only b visible at n2, got %v", got)
	}
}

func TestBindingsAtNilViewpointReturnsAll(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	v := p.NewVariable(nil, SourceSet{}, nil)
	v.AddBindingAt("a", SourceSet{}, n0)
	v.AddBindingAt("b", SourceSet{}, n0)

	got := v.BindingsAt(nil)
	if len(got) != 2 {
		t.Fatalf("expected both bindings with a nil viewpoint, got %v", got)
	}
}

func TestOverflowCollapsesToDefaultData(t *testing.T) {
	p := NewProgram("overflow-sentinel", nil)
	v := p.NewVariable(nil, SourceSet{}, nil)
	for i := 0; i < MaxVarSize; i++ {
		v.AddBinding(i)
	}
	if len(v.AllBindings()) != MaxVarSize {
		t.Fatalf("expected %d bindings after filling to capacity, got %d", MaxVarSize, len(v.AllBindings()))
	}

	overflow := v.AddBinding("one too many")
	if len(v.AllBindings()) != MaxVarSize {
		t.Fatalf("expected binding count to stay at %d after overflow, got %d", MaxVarSize, len(v.AllBindings()))
	}
	if overflow.Data() != "overflow-sentinel" {
		t.Fatalf("expected overflow binding to carry the default data, got %v", overflow.Data())
	}
}

func TestPasteVariableSameNodeKeepsSourceSetsFlat(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)

	src := p.NewVariable(nil, SourceSet{}, nil)
	a := src.AddBindingAt("a", SourceSet{}, n0)

	dst := p.NewVariable(nil, SourceSet{}, nil)
	dst.PasteVariable(src, n0)

	pasted := dst.AllBindings()
	if len(pasted) != 1 || pasted[0].data != a.data {
		t.Fatalf("expected pasted binding with a's data, got %v", pasted)
	}
	origin, ok := pasted[0].FindOrigin(n0)
	if !ok {
		t.Fatal("expected pasted binding to have an origin at n0")
	}
	if origin.Len() != 1 {
		t.Fatalf("expected exactly one source set on the pasted origin, got %d", origin.Len())
	}
	if ss := origin.SourceSets()[0]; ss.Contains(a) || ss.Len() != 0 {
		t.Fatalf("expected a's empty source set copied verbatim, not a set wrapping a; got %d member(s)", ss.Len())
	}
}

func TestAssignToNewVariableRecordsSource(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)

	v := p.NewVariable(nil, SourceSet{}, nil)
	a := v.AddBindingAt("a", SourceSet{}, n0)

	nv := v.AssignToNewVariable(n1)
	data := nv.DataAt(n1)
	if len(data) != 1 || data[0] != "a" {
		t.Fatalf("expected the copied variable to show a's data at n1, got %v", data)
	}
	copied := nv.AllBindings()[0]
	if !copied.HasSource(a) {
		t.Fatal("expected the copied binding to have the original as its source")
	}
}

func TestRegisterChangeListenerFiresOnNewBinding(t *testing.T) {
	p := NewProgram(nil, nil)
	v := p.NewVariable(nil, SourceSet{}, nil)

	calls := 0
	v.RegisterChangeListener(func() { calls++ })

	payload := "x"
	v.AddBinding(payload)
	v.AddBinding(payload) // same identity, should not notify again
	v.AddBinding("y")

	if calls != 2 {
		t.Fatalf("expected 2 change notifications, got %d", calls)
	}
}
