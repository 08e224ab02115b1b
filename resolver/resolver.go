// Package resolver scans element text for citation phrases and resolves
// them against the index of the complete element sequence. It runs only
// after parsing finishes for the whole document, because a citation may
// point forward to an element not yet seen in text order.
//
// Pattern-based citation detection is inherently incomplete, so a
// citation whose target is not in the index is a normal outcome: it is
// recorded as unresolved with its literal text, never silently dropped.
package resolver

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/brunobiangulo/ethicagraph/element"
	"github.com/brunobiangulo/ethicagraph/parser"
)

// Edge is a directed reference between two elements.
type Edge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// Unresolved records a citation whose target ordinal does not exist in
// the element index. The literal matched text is kept for operators.
type Unresolved struct {
	SourceID string       `json:"source_id"`
	Text     string       `json:"text"`
	Kind     element.Kind `json:"kind"`
	Part     int          `json:"part"`
	Ordinal  int          `json:"ordinal"`
}

// Resolution is the output of a resolver run.
type Resolution struct {
	Edges      []Edge
	Unresolved []Unresolved
}

const ordinal = `([IVXLCDMivxlcdm]+|\d+)`
const kindWord = `(Definitions?|Axioms?|Propositions?|Def\.|Ax\.|Prop\.)`

// Citation patterns, most specific first. Part-qualified forms are
// matched before unqualified ones; spans covered by a qualified match
// are masked so the embedded unqualified phrase is not counted twice.
var (
	// "Proposition 7 of Part I", "by Definition 3 of this Part"
	reQualified = regexp.MustCompile(`(?i)\b` + kindWord + `\s+` + ordinal + `\s+of\s+(?:Part\s+` + ordinal + `|(this)\s+Part)`)
	// "Part I, Proposition 7" (part named first)
	rePartFirst = regexp.MustCompile(`(?i)\bPart\s+` + ordinal + `\s*,\s*` + kindWord + `\s+` + ordinal)
	// "Proposition 7", "Def. 3" with no part qualifier: resolves within
	// the referencing element's own part.
	reUnqualified = regexp.MustCompile(`(?i)\b` + kindWord + `\s+` + ordinal + `\b`)
)

// Resolve populates each element's References list and returns the full
// reference set plus unresolved citations. It replaces any previously
// populated references, so re-running on the same sequence yields an
// identical result.
func Resolve(elements []*element.Element) *Resolution {
	idx := element.NewIndex(elements)
	res := &Resolution{}

	for _, el := range elements {
		el.References = nil
		sourceID := el.ID()
		seen := make(map[string]bool)

		// Spans already consumed by part-qualified matches.
		var masked [][2]int
		overlaps := func(start, end int) bool {
			for _, m := range masked {
				if start < m[1] && end > m[0] {
					return true
				}
			}
			return false
		}

		record := func(text string, kind element.Kind, part, ord int) {
			targetID, ok := idx.Lookup(kind, part, ord)
			if !ok {
				key := "!" + text
				if seen[key] {
					return
				}
				seen[key] = true
				res.Unresolved = append(res.Unresolved, Unresolved{
					SourceID: sourceID,
					Text:     text,
					Kind:     kind,
					Part:     part,
					Ordinal:  ord,
				})
				return
			}
			if targetID == sourceID {
				// Self-citations are noise.
				return
			}
			if seen[targetID] {
				return
			}
			seen[targetID] = true
			el.References = append(el.References, targetID)
			res.Edges = append(res.Edges, Edge{SourceID: sourceID, TargetID: targetID})
		}

		// Pass 1: "<Kind> N of Part M" / "<Kind> N of this Part".
		for _, m := range reQualified.FindAllStringSubmatchIndex(el.Text, -1) {
			text := el.Text[m[0]:m[1]]
			kind, ok := kindFromWord(group(el.Text, m, 1))
			if !ok {
				continue
			}
			ord := parser.ParseOrdinal(group(el.Text, m, 2))
			part := el.Part
			if partWord := group(el.Text, m, 3); partWord != "" {
				part = parser.ParseOrdinal(partWord)
			}
			if ord == 0 || part == 0 {
				continue
			}
			masked = append(masked, [2]int{m[0], m[1]})
			record(text, kind, part, ord)
		}

		// Pass 2: "Part M, <Kind> N".
		for _, m := range rePartFirst.FindAllStringSubmatchIndex(el.Text, -1) {
			if overlaps(m[0], m[1]) {
				continue
			}
			text := el.Text[m[0]:m[1]]
			part := parser.ParseOrdinal(group(el.Text, m, 1))
			kind, ok := kindFromWord(group(el.Text, m, 2))
			if !ok {
				continue
			}
			ord := parser.ParseOrdinal(group(el.Text, m, 3))
			if ord == 0 || part == 0 {
				continue
			}
			masked = append(masked, [2]int{m[0], m[1]})
			record(text, kind, part, ord)
		}

		// Pass 3: unqualified ordinals resolve within the element's own
		// part.
		for _, m := range reUnqualified.FindAllStringSubmatchIndex(el.Text, -1) {
			if overlaps(m[0], m[1]) {
				continue
			}
			text := el.Text[m[0]:m[1]]
			kind, ok := kindFromWord(group(el.Text, m, 1))
			if !ok {
				continue
			}
			ord := parser.ParseOrdinal(group(el.Text, m, 2))
			if ord == 0 {
				continue
			}
			record(text, kind, el.Part, ord)
		}
	}

	slog.Info("reference resolution complete",
		"elements", len(elements),
		"resolved", len(res.Edges),
		"unresolved", len(res.Unresolved))

	return res
}

// group extracts a submatch by index from FindAllStringSubmatchIndex
// output, empty when the group did not participate.
func group(text string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}

// kindFromWord maps a citation keyword to the element kind it names.
func kindFromWord(word string) (element.Kind, bool) {
	word = strings.ToLower(word)
	switch strings.TrimSuffix(strings.TrimSuffix(word, "."), "s") {
	case "definition", "def":
		return element.KindDefinition, true
	case "axiom", "ax":
		return element.KindAxiom, true
	case "proposition", "prop":
		return element.KindProposition, true
	}
	return "", false
}
