package ptflow

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Solver proves or disproves reachability queries over one Program's CFG:
// "is there a path through the program, ending at this node, along which
// these bindings (and everything they transitively depend on) hold?" It
// memoizes every subproblem it has already answered and owns a pathFinder
// to answer the backward-reachability questions that drive its search.
//
// A Solver is scrapped and rebuilt (see Program.InvalidateSolver) the
// moment the graph it answers questions about changes, since its memo
// table and its pathFinder's cache are both keyed on that graph's shape.
type Solver struct {
	program    *Program
	pathFinder *pathFinder
	cache      map[string]bool
}

func newSolver(program *Program) *Solver {
	return &Solver{
		program:    program,
		pathFinder: newPathFinder(),
		cache:      make(map[string]bool),
	}
}

// Solve asks whether every binding in goals can simultaneously hold at
// pos: whether some backward walk from pos, through each goal's origins
// and the sources those origins depend on in turn, reaches the program's
// start without ever requiring a single variable to hold two different
// bindings at once.
func (s *Solver) Solve(goals map[*Binding]struct{}, pos *CFGNode) bool {
	return s.recallOrFindSolution(newSolverState(pos, goals))
}

// solverState is one node of the search: a CFG position plus the set of
// bindings that must hold there. Two states with the same position and
// the same goal set are the same subproblem, hence solverState.key is
// the Solver's memoization key.
type solverState struct {
	pos   *CFGNode
	goals map[*Binding]struct{}
}

func newSolverState(pos *CFGNode, goals map[*Binding]struct{}) *solverState {
	g := make(map[*Binding]struct{}, len(goals))
	for b := range goals {
		g[b] = struct{}{}
	}
	return &solverState{pos: pos, goals: g}
}

func (st *solverState) done() bool {
	return len(st.goals) == 0
}

func (st *solverState) key() string {
	ids := make([]int, 0, len(st.goals))
	for b := range st.goals {
		ids = append(ids, b.id)
	}
	sort.Ints(ids)
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(st.pos.id))
	sb.WriteByte('|')
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(id))
	}
	return sb.String()
}

// sortedGoals returns the state's goals ordered by binding id, so that
// the search visits goals in a reproducible order and populates the
// memo cache the same way on every run.
func (st *solverState) sortedGoals() []*Binding {
	out := make([]*Binding, 0, len(st.goals))
	for b := range st.goals {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// blockedFrontier returns, as a bitset keyed on CFGNode.id, every CFG
// node that assigns any variable named by a goal — not just the nodes
// that assign the goal bindings themselves. These are the nodes
// findSolution must treat as blocked, since any of them could be a
// conflicting assignment for one of the goal variables. st.pos itself is
// never included: a concurrent assignment at the current position does
// not shadow the goal we're trying to prove there.
func (st *solverState) blockedFrontier() *bitset.BitSet {
	out := bitset.New(0)
	for goal := range st.goals {
		for _, n := range goal.variable.Nodes() {
			out.Set(uint(n.id))
		}
	}
	out.Clear(uint(st.pos.id))
	return out
}

// replace discharges goal and adds replacement's members as new goals in
// its place.
func (st *solverState) replace(goal *Binding, replacement SourceSet) {
	if _, ok := st.goals[goal]; !ok {
		panic(newInvariantError(GoalNotInState, "solverState.replace"))
	}
	delete(st.goals, goal)
	for _, b := range replacement.Bindings() {
		st.goals[b] = struct{}{}
	}
}

// addSources checks whether goal is trivially satisfied at st.pos: it has
// exactly one origin there, with exactly one source set. If so, that
// source set's bindings are folded into newGoals and addSources reports
// true. A goal with more than one source set at this position is left
// alone — the search needs to branch over the alternatives, which is
// findSolution's job, not this one.
func (st *solverState) addSources(goal *Binding, newGoals map[*Binding]struct{}) bool {
	origin, ok := goal.FindOrigin(st.pos)
	if !ok || origin.Len() > 1 {
		return false
	}
	sourceSet, ok := origin.soleSourceSet()
	if !ok {
		return false
	}
	for _, b := range sourceSet.Bindings() {
		newGoals[b] = struct{}{}
	}
	return true
}

// removeFinishedGoals strips every goal that's trivially fulfilled at the
// current position, cascading: a goal's sources might themselves be
// trivially fulfilled, and so on. seenGoals guards against looping
// forever over self-supporting (cyclic) provenance. It mutates st.goals
// in place and returns the set of goals it removed.
func (st *solverState) removeFinishedGoals() map[*Binding]struct{} {
	newGoals := make(map[*Binding]struct{})
	goalsToRemove := make(map[*Binding]struct{})
	for goal := range st.goals {
		if st.addSources(goal, newGoals) {
			goalsToRemove[goal] = struct{}{}
		}
	}

	seenGoals := make(map[*Binding]struct{}, len(st.goals))
	for g := range st.goals {
		seenGoals[g] = struct{}{}
	}
	for len(newGoals) > 0 {
		goal := popLowestID(newGoals)
		if _, ok := seenGoals[goal]; ok {
			continue
		}
		seenGoals[goal] = struct{}{}
		if st.addSources(goal, newGoals) {
			goalsToRemove[goal] = struct{}{}
		} else {
			st.goals[goal] = struct{}{}
		}
	}

	for goal := range goalsToRemove {
		delete(st.goals, goal)
	}
	return goalsToRemove
}

func popLowestID(m map[*Binding]struct{}) *Binding {
	var chosen *Binding
	for b := range m {
		if chosen == nil || b.id < chosen.id {
			chosen = b
		}
	}
	delete(m, chosen)
	return chosen
}

// goalsConflict reports whether goals would require some variable to
// hold two distinct bindings at once, which makes the goal set
// unsatisfiable. Two goals for the same variable that are actually the
// same binding, reached through two different call sites, indicate a
// caller built a goal set with a structural duplicate — callers are
// expected to dedup by identity before this point, so that is treated as
// an engine invariant violation rather than a plain false result.
func goalsConflict(goals map[*Binding]struct{}) bool {
	variables := make(map[*Variable]*Binding, len(goals))
	for goal := range goals {
		existing, ok := variables[goal.variable]
		if !ok {
			variables[goal.variable] = goal
			continue
		}
		if existing == goal {
			panic(newInvariantError(DuplicateGoal, "goalsConflict"))
		}
		if existing.data == goal.data {
			panic(newInvariantError(ConflictingData, "goalsConflict"))
		}
		return true
	}
	return false
}

func sortedSourceSets(o *Origin) []SourceSet {
	keys := make([]string, 0, len(o.sourceSets))
	for k := range o.sourceSets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]SourceSet, len(keys))
	for i, k := range keys {
		out[i] = o.sourceSets[k]
	}
	return out
}

// recallOrFindSolution is findSolution with memoization. Before
// recursing it optimistically stores "true" for this exact state: if the
// provenance graph is cyclic and the recursion loops back around to the
// same (pos, goals) pair, that nested call sees the optimistic answer
// and returns immediately instead of recursing forever. This trades
// soundness on self-supporting cycles (a binding that, transitively,
// depends only on itself is treated as reachable) for termination, which
// is the same trade the engine's provenance model makes everywhere else
// a cycle can occur.
func (s *Solver) recallOrFindSolution(st *solverState) bool {
	key := st.key()
	if result, ok := s.cache[key]; ok {
		s.program.metrics.SolverCache.Inc("hit")
		return result
	}
	s.program.metrics.SolverCache.Inc("miss")
	s.cache[key] = true
	result := s.findSolution(st)
	s.cache[key] = result
	return result
}

// findSolution looks for one way to discharge every goal in st.goals by
// walking backward from st.pos: for each goal, for each place it could
// have originated, it asks the pathFinder whether that place is even
// reachable without crossing a conflicting assignment of the same
// variable. If it is, every condition guarding that walk becomes a new
// goal too, and the goal itself is swapped out for one of its source
// sets — and the search recurses from there. The first fully-discharged
// branch wins; if none does, the goal set is unreachable from st.pos.
func (s *Solver) findSolution(st *solverState) bool {
	if st.done() {
		return true
	}
	if goalsConflict(st.goals) {
		return false
	}
	s.program.metrics.GoalsPerFind.Add(int64(len(st.goals)))

	blocked := st.blockedFrontier()

	for _, goal := range st.sortedGoals() {
		for _, origin := range goal.Origins() {
			pathExists, path := s.pathFinder.FindNodeBackwards(st.pos, origin.where, blocked)
			if !pathExists {
				continue
			}
			// Branching over alternative source sets for the same
			// origin is exactly why subproblems recur and memoization
			// pays off.
			for _, sourceSet := range sortedSourceSets(origin) {
				newGoals := make(map[*Binding]struct{}, len(st.goals))
				for g := range st.goals {
					newGoals[g] = struct{}{}
				}
				for _, node := range path {
					newGoals[node.condition] = struct{}{}
				}

				var where *CFGNode
				if len(path) > 0 && len(newGoals) > len(st.goals) {
					// A guard condition was added as a new goal, and its
					// binding might not exist yet at origin.where — it
					// can only have been defined further back, at the
					// first guard the backward walk crossed.
					where = path[0]
				} else {
					where = origin.where
				}

				newState := newSolverState(where, newGoals)
				if origin.where == newState.pos {
					// The goal can only be swapped for its sources if
					// origin.where was actually the position reached.
					newState.replace(goal, sourceSet)
				}

				removed := newState.removeFinishedGoals()
				removed[goal] = struct{}{}
				if goalsConflict(removed) {
					// The goals bulk-removed as trivially satisfied
					// turned out to conflict with each other.
					return false
				}
				if s.recallOrFindSolution(newState) {
					return true
				}
			}
		}
	}
	return false
}
