package element

// IndexKey identifies a primary element for citation lookup.
type IndexKey struct {
	Kind Kind
	Part int
	Seq  int
}

// Index maps (part, kind, sequence) tuples to element identifiers. It is
// built from the complete ordered element sequence, so lookups work for
// forward references as well as backward ones.
type Index struct {
	byKey map[IndexKey]string
}

// NewIndex builds an index over the full element sequence. Only primary
// elements (definitions, axioms, propositions) are indexed; citations
// never target dependent elements directly.
func NewIndex(elements []*Element) *Index {
	idx := &Index{byKey: make(map[IndexKey]string, len(elements))}
	for _, e := range elements {
		if !e.Kind.Primary() {
			continue
		}
		idx.byKey[IndexKey{Kind: e.Kind, Part: e.Part, Seq: e.Sequence}] = e.ID()
	}
	return idx
}

// Lookup resolves a (kind, part, sequence) tuple to an element ID.
func (i *Index) Lookup(kind Kind, part, seq int) (string, bool) {
	id, ok := i.byKey[IndexKey{Kind: kind, Part: part, Seq: seq}]
	return id, ok
}

// Len returns the number of indexed elements.
func (i *Index) Len() int { return len(i.byKey) }
