// Package parser scans raw extracted text and emits the ordered sequence
// of typed elements that make up the document. Classification is driven
// by an ordered marker table evaluated first-match-wins; lines matching
// no marker are merged into the text of the preceding element so no body
// text is discarded. A single malformed block never aborts the rest of
// the parse: problems are collected as anomalies and the best-effort
// element sequence is returned.
package parser

import (
	"log/slog"
	"strings"

	"github.com/brunobiangulo/ethicagraph/element"
)

// Anomaly records a recoverable parse problem: a block that could not be
// attached, text with no preceding element, or a printed ordinal that
// disagrees with the positional sequence.
type Anomaly struct {
	Line    int          `json:"line"`
	Kind    element.Kind `json:"kind,omitempty"`
	Message string       `json:"message"`
	Snippet string       `json:"snippet,omitempty"`
}

// Result is the output of a parse: the ordered element sequence plus any
// anomalies encountered along the way.
type Result struct {
	Elements  []*element.Element
	Anomalies []Anomaly
}

// Parser classifies raw text into elements using a per-language marker
// table.
type Parser struct {
	language string
	rules    []rule
}

// New creates a parser for the given language ("english" or "latin";
// empty selects english).
func New(language string) (*Parser, error) {
	rules, err := rulesFor(language)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = "english"
	}
	return &Parser{language: language, rules: rules}, nil
}

// Language returns the language of the active marker table.
func (p *Parser) Language() string { return p.language }

// cursor is the parse state threaded through the scan loop: the element
// currently accumulating text plus the enclosing part and proposition.
type cursor struct {
	current *element.Element
	part    *element.Element
	prop    *element.Element
	// discard is set after a skipped marker so the body of the skipped
	// block is not misattributed to an earlier element.
	discard bool
}

// Parse scans raw text line by line and returns the ordered element
// sequence. Sequence numbers are assigned by order of appearance within
// their scope; printed ordinals are cross-checked opportunistically and
// a mismatch is a warning, not an error.
func (p *Parser) Parse(raw string) *Result {
	res := &Result{}

	// Page-break markers from extraction act as line boundaries.
	raw = strings.ReplaceAll(raw, "\f", "\n")
	lines := strings.Split(raw, "\n")

	var (
		cur cursor
		// positional counters, reset when their scope changes
		seqByKind  map[element.Kind]int // per part: Definition/Axiom/Proposition
		occByKind  map[element.Kind]int // per proposition: Dem/Sch/Cor
		partCount  int
		partCorOcc int // part-level corollaries
		orphan     []string
		orphanLine int
	)

	flushOrphan := func() {
		if len(orphan) == 0 {
			return
		}
		res.Anomalies = append(res.Anomalies, Anomaly{
			Line:    orphanLine,
			Message: "text before first recognized element",
			Snippet: snippet(strings.Join(orphan, " ")),
		})
		orphan = nil
	}

	for i, line := range lines {
		lineNo := i + 1
		kind, printed, matched := p.classify(line)
		if !matched {
			trimmed := strings.TrimSpace(line)
			switch {
			case cur.current != nil:
				cur.current.Text += "\n" + line
			case trimmed == "":
				// leading blank line, nothing to attach
			case cur.discard:
				// body of a skipped block, dropped with its marker
			default:
				if len(orphan) == 0 {
					orphanLine = lineNo
				}
				orphan = append(orphan, trimmed)
			}
			continue
		}

		flushOrphan()

		el := &element.Element{Kind: kind, PrintedOrdinal: printed, Text: line}

		switch {
		case kind == element.KindPart:
			partCount++
			el.Part = partCount
			el.Sequence = partCount
			seqByKind = make(map[element.Kind]int)
			occByKind = nil
			partCorOcc = 0
			cur = cursor{current: el, part: el}

		case kind.Primary():
			if cur.part == nil {
				res.Anomalies = append(res.Anomalies, Anomaly{
					Line: lineNo, Kind: kind,
					Message: "element before any part, skipped",
					Snippet: snippet(line),
				})
				cur.current = nil
				cur.discard = true
				continue
			}
			seqByKind[kind]++
			el.Part = cur.part.Part
			el.Sequence = seqByKind[kind]
			if printed != 0 && printed != el.Sequence {
				res.Anomalies = append(res.Anomalies, Anomaly{
					Line: lineNo, Kind: kind,
					Message: "printed ordinal disagrees with positional sequence",
					Snippet: snippet(line),
				})
			}
			cur.current = el
			cur.discard = false
			if kind == element.KindProposition {
				cur.prop = el
				occByKind = make(map[element.Kind]int)
			}

		default: // Demonstration, Scholium, Corollary
			switch {
			case cur.prop != nil:
				occByKind[kind]++
				el.Part = cur.prop.Part
				el.ParentSeq = cur.prop.Sequence
				el.Occurrence = occByKind[kind]
			case kind == element.KindCorollary && cur.part != nil:
				// Corollary with no live proposition attaches at part level.
				partCorOcc++
				el.Part = cur.part.Part
				el.Occurrence = partCorOcc
			default:
				res.Anomalies = append(res.Anomalies, Anomaly{
					Line: lineNo, Kind: kind,
					Message: "dependent element before any proposition, skipped",
					Snippet: snippet(line),
				})
				cur.current = nil
				cur.discard = true
				continue
			}
			cur.current = el
			cur.discard = false
		}

		res.Elements = append(res.Elements, el)
	}

	flushOrphan()

	for _, e := range res.Elements {
		e.Text = strings.TrimSpace(e.Text)
	}

	if len(res.Anomalies) > 0 {
		slog.Warn("parse completed with anomalies",
			"language", p.language,
			"elements", len(res.Elements),
			"anomalies", len(res.Anomalies))
		for _, a := range res.Anomalies {
			slog.Debug("parse anomaly",
				"line", a.Line, "kind", string(a.Kind), "message", a.Message)
		}
	}

	return res
}

// classify matches a line against the marker table, first match wins.
// Returns the kind, the printed ordinal (0 when absent), and whether any
// rule matched.
func (p *Parser) classify(line string) (element.Kind, int, bool) {
	for _, r := range p.rules {
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		printed := 0
		if len(m) > 1 && m[1] != "" {
			printed = ParseOrdinal(m[1])
		}
		return r.kind, printed, true
	}
	return "", 0, false
}

// snippet truncates text for anomaly records.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
