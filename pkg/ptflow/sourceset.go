package ptflow

import (
	"sort"
	"strconv"
	"strings"
)

// SourceSet is an immutable, unordered collection of Bindings that were
// jointly required to produce another binding. For a statement like
// "z = a.x + y", the bindings for a, a.x, and y together form the
// SourceSet for z.
//
// SourceSet is a value type: two SourceSets with the same members are
// equal regardless of construction order, and are treated as the same
// set element when added to an Origin (see Origin.AddSourceSet).
type SourceSet struct {
	members map[*Binding]struct{}
}

// NewSourceSet builds a SourceSet from zero or more bindings. A nil or
// empty argument list produces the empty (unconditional) SourceSet.
func NewSourceSet(bindings ...*Binding) SourceSet {
	members := make(map[*Binding]struct{}, len(bindings))
	for _, b := range bindings {
		members[b] = struct{}{}
	}
	return SourceSet{members: members}
}

// Len returns the number of bindings in the set.
func (s SourceSet) Len() int {
	return len(s.members)
}

// Contains reports whether b is a member of the set.
func (s SourceSet) Contains(b *Binding) bool {
	_, ok := s.members[b]
	return ok
}

// Bindings returns the set's members. The order is unspecified; callers
// that need determinism should sort by Binding.id.
func (s SourceSet) Bindings() []*Binding {
	out := make([]*Binding, 0, len(s.members))
	for b := range s.members {
		out = append(out, b)
	}
	return out
}

// key returns a canonical string identifying this SourceSet by content,
// used both to dedup SourceSets within an Origin and to give the
// solver a deterministic order over an origin's SourceSets
// (sortedSourceSets). Bindings are sorted by their internal id so
// that two SourceSets built in different orders produce the same key.
func (s SourceSet) key() string {
	ids := make([]int, 0, len(s.members))
	for b := range s.members {
		ids = append(ids, b.id)
	}
	sort.Ints(ids)
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(id))
	}
	return sb.String()
}
