package ptflow

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// pathFinder determines whether the CFG can be walked backward between
// two nodes avoiding a blocked set, and collects the condition-bearing
// nodes that lie on *every* such path — the guards that must hold for
// the walk to be possible at all.
//
// Membership tests against "blocked" and "already on this path" happen on
// every step of the backward DFS, so both are bitset-backed (keyed on
// CFGNode.id) rather than map[*CFGNode]struct{}, the same tradeoff the
// refactoring tool in the retrieval pack makes for its reaching-definition
// gen/kill sets.
//
// A pathFinder is owned by, and shares its lifetime with, exactly one
// Solver: it is discarded whenever the solver is (Program.InvalidateSolver).
type pathFinder struct {
	cache map[string]pathFinderResult
}

type pathFinderResult struct {
	ok   bool
	path []*CFGNode
}

func newPathFinder() *pathFinder {
	return &pathFinder{cache: make(map[string]pathFinderResult)}
}

func sortedIncoming(n *CFGNode) []*CFGNode {
	out := make([]*CFGNode, 0, len(n.incoming))
	for m := range n.incoming {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func bitsetKey(bs *bitset.BitSet) string {
	var sb strings.Builder
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(i)))
	}
	return sb.String()
}

func queryKey(start, finish *CFGNode, blocked *bitset.BitSet) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(start.id))
	sb.WriteByte('>')
	sb.WriteString(strconv.Itoa(finish.id))
	sb.WriteByte('|')
	sb.WriteString(bitsetKey(blocked))
	return sb.String()
}

// FindNodeBackwards reports whether finish is reachable by walking
// backward (via Incoming edges) from start without entering any node set
// in blocked — start and finish themselves are never treated as blocked
// — and, if so, the condition-bearing nodes that lie on every such path,
// ordered along one concrete witness path from start to finish.
//
// The ordering matters: the Solver uses the first element as its next
// search position, and an unordered result could make it "jump over" a
// definition that lies between the two guards.
func (pf *pathFinder) FindNodeBackwards(start, finish *CFGNode, blocked *bitset.BitSet) (bool, []*CFGNode) {
	key := queryKey(start, finish, blocked)
	if res, ok := pf.cache[key]; ok {
		return res.ok, res.path
	}

	if start == finish {
		var path []*CFGNode
		if start.condition != nil {
			path = []*CFGNode{start}
		}
		pf.cache[key] = pathFinderResult{true, path}
		return true, path
	}

	if !pf.findPathToNode(start, finish, blocked) {
		pf.cache[key] = pathFinderResult{false, nil}
		return false, nil
	}

	ok, path := pf.findNodeBackwardsImpl(start, finish, blocked)
	pf.cache[key] = pathFinderResult{ok, path}
	return ok, path
}

// findPathToNode is a cheap reachability probe (DFS ignoring
// conditions), used to short-circuit the more expensive guard-collecting
// search when no path exists at all.
func (pf *pathFinder) findPathToNode(start, finish *CFGNode, blocked *bitset.BitSet) bool {
	stack := []*CFGNode{start}
	seen := bitset.New(0)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == finish {
			return true
		}
		if seen.Test(uint(node.id)) {
			continue
		}
		if node != start && blocked.Test(uint(node.id)) {
			continue
		}
		seen.Set(uint(node.id))
		stack = append(stack, sortedIncoming(node)...)
	}
	return false
}

type pathFinderFrame struct {
	incoming []*CFGNode
	idx      int
}

// findNodeBackwardsImpl is an iterative backward DFS from start. It
// maintains an explicit path stack and, per node, an iterator position
// over that node's incoming edges. Every time a walk completes (reaches
// finish), it intersects the running solutionSet with the
// condition-bearing nodes on that particular path. When backtracking a
// node that isn't finish, it computes that node's "nodeToFinishSet" — the
// intersection of its already-resolved neighbors' finish-sets, plus
// itself — and folds any newly-discovered composite path into
// solutionSet too.
func (pf *pathFinder) findNodeBackwardsImpl(start, finish *CFGNode, blocked *bitset.BitSet) (bool, []*CFGNode) {
	var (
		solutionSet        map[*CFGNode]struct{}
		solutionSetStarted bool
		onePath            []*CFGNode
	)
	// nodeToFinishSet[n] == nil (but present) means no path from n to
	// finish was found; absent means n hasn't been resolved yet.
	nodeToFinishSet := make(map[*CFGNode]map[*CFGNode]struct{})

	updateSolutionSet := func(nodes []*CFGNode) {
		if !solutionSetStarted {
			s := make(map[*CFGNode]struct{})
			for _, n := range nodes {
				if n.condition != nil {
					s[n] = struct{}{}
				}
			}
			solutionSet = s
			solutionSetStarted = true
			return
		}
		inPath := make(map[*CFGNode]struct{}, len(nodes))
		for _, n := range nodes {
			inPath[n] = struct{}{}
		}
		for n := range solutionSet {
			if _, ok := inPath[n]; !ok {
				delete(solutionSet, n)
			}
		}
	}

	finishNode := func(node *CFGNode, pathSoFar []*CFGNode) {
		thisPath := make([]*CFGNode, len(pathSoFar)+1)
		copy(thisPath, pathSoFar)
		thisPath[len(pathSoFar)] = node
		if onePath == nil {
			onePath = thisPath
		}
		updateSolutionSet(thisPath)
		nodeToFinishSet[node] = map[*CFGNode]struct{}{node: {}}
	}

	updateNodeToFinishSet := func(node *CFGNode, pathSoFar []*CFGNode) {
		var toFinish map[*CFGNode]struct{}
		started := false
		for _, inc := range sortedIncoming(node) {
			incSet, resolved := nodeToFinishSet[inc]
			if !resolved || incSet == nil {
				continue
			}
			if !started {
				// Copy rather than alias: toFinish must never mutate
				// the stored set belonging to inc, since inc's finish
				// set may still be read by other nodes that also list
				// it as an incoming neighbor.
				toFinish = make(map[*CFGNode]struct{}, len(incSet))
				for n := range incSet {
					toFinish[n] = struct{}{}
				}
				started = true
				continue
			}
			for n := range toFinish {
				if _, ok := incSet[n]; !ok {
					delete(toFinish, n)
				}
			}
		}
		if !started {
			nodeToFinishSet[node] = nil
			return
		}
		toFinish[node] = struct{}{}
		nodesOnPath := make([]*CFGNode, len(pathSoFar), len(pathSoFar)+len(toFinish))
		copy(nodesOnPath, pathSoFar)
		for n := range toFinish {
			nodesOnPath = append(nodesOnPath, n)
		}
		updateSolutionSet(nodesOnPath)
		nodeToFinishSet[node] = toFinish
	}

	path := []*CFGNode{start}
	seenSet := bitset.New(0)
	frames := make(map[*CFGNode]*pathFinderFrame)

	for len(path) > 0 {
		head := path[len(path)-1]
		frame, ok := frames[head]
		if !ok {
			frame = &pathFinderFrame{incoming: sortedIncoming(head)}
			frames[head] = frame
		}
		if frame.idx >= len(frame.incoming) {
			path = path[:len(path)-1]
			if head == finish {
				finishNode(head, path)
			} else {
				updateNodeToFinishSet(head, path)
			}
			continue
		}
		next := frame.incoming[frame.idx]
		frame.idx++

		if next == finish {
			if solutionSetStarted && len(solutionSet) == 0 {
				// Solution set can never grow and is already empty.
				break
			}
			finishNode(next, path)
			continue
		}
		// finish is always (implicitly) blocked by the caller's
		// convention, so this check must stay below the finish test.
		if blocked.Test(uint(next.id)) {
			continue
		}
		if seenSet.Test(uint(next.id)) {
			continue
		}
		seenSet.Set(uint(next.id))
		path = append(path, next)
	}

	if !solutionSetStarted {
		return false, nil
	}
	out := make([]*CFGNode, 0, len(onePath))
	for _, n := range onePath {
		if n.condition == nil {
			continue
		}
		if _, ok := solutionSet[n]; ok {
			out = append(out, n)
		}
	}
	return true, out
}
