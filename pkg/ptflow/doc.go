// Package ptflow provides a points-to / dataflow engine used to back a
// static type inferencer for a dynamically-typed language.
//
// # What is this?
//
// Given a control-flow graph (CFG) built up node by node, and a set of
// variables whose possible values ("bindings") are attached to specific
// CFG nodes, ptflow answers a single recurring question: at a given point
// in the program, is a proposed combination of bindings simultaneously
// realizable by some execution path from program entry?
//
// # Architecture
//
// Five pieces, leaves first:
//
//   - SourceSet: an immutable, content-hashable bag of bindings that were
//     jointly required to produce another binding.
//   - Origin: attaches one binding to one CFGNode, recording the
//     alternative SourceSets that could have produced it there.
//   - Variable: a bag of Bindings for one logical storage slot.
//   - CFGNode: a vertex with incoming/outgoing edges, an optional guard
//     (condition binding), and a cached ancestor-or-self set.
//   - Program: the root registry. Owns nodes and variables, assigns
//     monotonic ids, and lazily owns a Solver (which in turn owns a
//     PathFinder).
//
// Callers build the graph with NewCFGNode / ConnectTo / NewVariable /
// AddBinding, then query it with IsVisible, BindingsAt, Filter, and
// HasCombination. BindingsAt looks at the CFG shape alone; the other
// queries delegate to the Solver, which asks the PathFinder for backward
// reachability with guard collection.
//
// # What this package does not do
//
// Abstract-value payloads are opaque to the engine (identity only); CFG
// construction, forward dataflow propagation, SSA construction, and
// fixed-point iteration are all the caller's concern, not ptflow's.
package ptflow
