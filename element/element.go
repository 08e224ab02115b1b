// Package element defines the shared data model for structural units of
// the Ethics: parts, definitions, axioms, propositions, and the units
// subordinate to propositions. All other packages exchange elements in
// this form.
package element

import "fmt"

// Kind discriminates the structural role of a textual unit.
type Kind string

const (
	KindPart          Kind = "Part"
	KindDefinition    Kind = "Definition"
	KindAxiom         Kind = "Axiom"
	KindProposition   Kind = "Proposition"
	KindDemonstration Kind = "Demonstration"
	KindScholium      Kind = "Scholium"
	KindCorollary     Kind = "Corollary"
)

// Kinds lists all element kinds in canonical order.
var Kinds = []Kind{
	KindPart,
	KindDefinition,
	KindAxiom,
	KindProposition,
	KindDemonstration,
	KindScholium,
	KindCorollary,
}

// Primary reports whether the kind is numbered directly within a part
// (definitions, axioms, propositions).
func (k Kind) Primary() bool {
	return k == KindDefinition || k == KindAxiom || k == KindProposition
}

// Dependent reports whether the kind is owned by a proposition.
func (k Kind) Dependent() bool {
	return k == KindDemonstration || k == KindScholium || k == KindCorollary
}

// Element is a single textual unit. It is a tagged variant: which fields
// are meaningful depends on Kind.
//
//   - Part: Part only (Sequence equals Part).
//   - Definition/Axiom/Proposition: (Part, Sequence).
//   - Demonstration/Scholium/Corollary: (Part, ParentSeq, Occurrence),
//     where ParentSeq is the owning proposition's sequence number. A
//     corollary attached directly to a part has ParentSeq 0.
//
// Sequence numbers are positional (order of appearance within scope);
// PrintedOrdinal records any numeral found in the source marker and is
// informational only. References is populated by the resolver, never by
// the parser.
type Element struct {
	Kind           Kind     `json:"kind"`
	Part           int      `json:"part"`
	Sequence       int      `json:"sequence,omitempty"`
	ParentSeq      int      `json:"parent_seq,omitempty"`
	Occurrence     int      `json:"occurrence,omitempty"`
	PrintedOrdinal int      `json:"printed_ordinal,omitempty"`
	Text           string   `json:"text"`
	References     []string `json:"references,omitempty"`
}

// ID returns the stable identifier for the element, derived from its
// identity tuple. Re-parsing the same document yields the same IDs.
func (e *Element) ID() string {
	switch {
	case e.Kind == KindPart:
		return fmt.Sprintf("part_%d", e.Part)
	case e.Kind.Primary():
		return fmt.Sprintf("%s_%d_%d", lower(e.Kind), e.Part, e.Sequence)
	default:
		return fmt.Sprintf("%s_%d_%d_%d", lower(e.Kind), e.Part, e.ParentSeq, e.Occurrence)
	}
}

// ParentID returns the identifier of the containing element and the
// relationship type that links them: parts contain primary elements
// (and part-level corollaries) via CONTAINS, propositions own their
// dependents via HAS. Parts themselves have no parent.
func (e *Element) ParentID() (id string, rel string, ok bool) {
	switch {
	case e.Kind == KindPart:
		return "", "", false
	case e.Kind.Primary():
		return fmt.Sprintf("part_%d", e.Part), RelContains, true
	case e.ParentSeq == 0:
		// Dependent attached at part level (corollary without a live
		// proposition cursor).
		return fmt.Sprintf("part_%d", e.Part), RelContains, true
	default:
		return fmt.Sprintf("proposition_%d_%d", e.Part, e.ParentSeq), RelHas, true
	}
}

// Relationship types persisted by the graph builder.
const (
	RelContains   = "CONTAINS"
	RelHas        = "HAS"
	RelReferences = "REFERENCES"
)

// lower maps a Kind to its lowercase identifier prefix.
func lower(k Kind) string {
	switch k {
	case KindPart:
		return "part"
	case KindDefinition:
		return "definition"
	case KindAxiom:
		return "axiom"
	case KindProposition:
		return "proposition"
	case KindDemonstration:
		return "demonstration"
	case KindScholium:
		return "scholium"
	case KindCorollary:
		return "corollary"
	}
	return string(k)
}

// CountByKind tallies elements per kind.
func CountByKind(elements []*Element) map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, e := range elements {
		counts[e.Kind]++
	}
	return counts
}
