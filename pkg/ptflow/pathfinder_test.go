package ptflow

import "github.com/bits-and-blooms/bitset"
import "testing"

func TestFindNodeBackwardsSameNode(t *testing.T) {
	p := NewProgram(nil, nil)
	n := p.NewCFGNode("n", nil)

	pf := newPathFinder()
	ok, path := pf.FindNodeBackwards(n, n, bitset.New(0))
	if !ok {
		t.Fatal("expected a trivial path from a node to itself")
	}
	if len(path) != 0 {
		t.Fatalf("expected no condition nodes on a trivial self-path, got %v", path)
	}
}

func TestFindNodeBackwardsLinear(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)
	n2 := n1.ConnectNew("n2", nil)

	pf := newPathFinder()
	ok, _ := pf.FindNodeBackwards(n2, n0, bitset.New(0))
	if !ok {
		t.Fatal("expected n0 reachable backward from n2")
	}
}

func TestFindNodeBackwardsBlockedEntirely(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)
	n2 := n1.ConnectNew("n2", nil)

	blocked := bitset.New(0)
	blocked.Set(uint(n1.id))

	pf := newPathFinder()
	ok, _ := pf.FindNodeBackwards(n2, n0, blocked)
	if ok {
		t.Fatal("expected n0 unreachable once the only path is blocked")
	}
}

func TestFindNodeBackwardsCollectsGuardOnEveryPath(t *testing.T) {
	p := NewProgram(nil, nil)
	cv := p.NewVariable(nil, SourceSet{}, nil)
	guard := cv.AddBinding(true)

	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", guard)
	n2 := n1.ConnectNew("n2", nil)

	pf := newPathFinder()
	ok, path := pf.FindNodeBackwards(n2, n0, bitset.New(0))
	if !ok {
		t.Fatal("expected n0 reachable backward from n2")
	}
	found := false
	for _, node := range path {
		if node == n1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected guard node n1 to appear on the witness path, got %v", path)
	}
}

func TestFindNodeBackwardsCacheIsConsistent(t *testing.T) {
	p := NewProgram(nil, nil)
	n0 := p.NewCFGNode("n0", nil)
	n1 := n0.ConnectNew("n1", nil)

	pf := newPathFinder()
	ok1, path1 := pf.FindNodeBackwards(n1, n0, bitset.New(0))
	ok2, path2 := pf.FindNodeBackwards(n1, n0, bitset.New(0))
	if ok1 != ok2 || len(path1) != len(path2) {
		t.Fatalf("expected identical results from repeated queries: (%v,%v) vs (%v,%v)", ok1, path1, ok2, path2)
	}
}

func TestFindNodeBackwardsDiamondIntersectsGuards(t *testing.T) {
	p := NewProgram(nil, nil)
	cv := p.NewVariable(nil, SourceSet{}, nil)
	leftGuard := cv.AddBinding("left")
	rightGuard := cv.AddBinding("right")

	n0 := p.NewCFGNode("n0", nil)
	left := n0.ConnectNew("left", leftGuard)
	right := n0.ConnectNew("right", rightGuard)
	merge := left.ConnectNew("merge", nil)
	right.ConnectTo(merge)

	pf := newPathFinder()
	ok, path := pf.FindNodeBackwards(merge, n0, bitset.New(0))
	if !ok {
		t.Fatal("expected n0 reachable backward from merge")
	}
	// Neither branch guard holds on every path through the diamond, so
	// the intersection across both paths must be empty.
	if len(path) != 0 {
		t.Fatalf("expected no guard common to every path through the diamond, got %v", path)
	}
}
