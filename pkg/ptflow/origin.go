package ptflow

// Origin explains how a binding was constructed at one particular CFG
// node: it is a node plus the alternative SourceSets that could have
// produced the binding there. A binding can have more than one Origin
// (one per CFG node where it's assigned), and each Origin can have more
// than one SourceSet (alternative ways of deriving the same binding at
// the same node).
type Origin struct {
	where      *CFGNode
	sourceSets map[string]SourceSet // keyed by SourceSet.key(), for dedup
}

func newOrigin(where *CFGNode) *Origin {
	return &Origin{
		where:      where,
		sourceSets: make(map[string]SourceSet),
	}
}

// Where returns the CFG node this origin is attached to.
func (o *Origin) Where() *CFGNode {
	return o.where
}

// AddSourceSet records another possible way to derive the binding this
// origin belongs to, at this origin's node. Adding a SourceSet with the
// same members as one already present is a no-op (SourceSets are
// deduped by content).
func (o *Origin) AddSourceSet(ss SourceSet) {
	o.sourceSets[ss.key()] = ss
}

// SourceSets returns the alternative SourceSets recorded on this origin.
// The order is unspecified.
func (o *Origin) SourceSets() []SourceSet {
	out := make([]SourceSet, 0, len(o.sourceSets))
	for _, ss := range o.sourceSets {
		out = append(out, ss)
	}
	return out
}

// Len returns how many alternative SourceSets this origin has.
func (o *Origin) Len() int {
	return len(o.sourceSets)
}

// soleSourceSet returns the origin's one SourceSet when it has exactly
// one, and false otherwise. It is the Go counterpart of the solver's
// "source_set, = origin.source_sets" unpacking: callers must always
// check ok.
func (o *Origin) soleSourceSet() (SourceSet, bool) {
	if len(o.sourceSets) != 1 {
		return SourceSet{}, false
	}
	for _, ss := range o.sourceSets {
		return ss, true
	}
	panic("unreachable")
}
