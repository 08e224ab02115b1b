package parser

import (
	"fmt"
	"regexp"

	"github.com/brunobiangulo/ethicagraph/element"
)

// rule pairs an element kind with the lexical marker that opens a block
// of that kind. Rules are evaluated in order, first match wins, so the
// classification policy is data rather than branching code and can be
// extended per translation.
type rule struct {
	kind    element.Kind
	pattern *regexp.Regexp // submatch 1, when present, is the printed ordinal
}

// ordinal matches roman or arabic numerals in marker lines.
const ordinal = `([IVXLCDMivxlcdm]+|\d+)`

// englishRules recognise the markers used in the standard English
// translations (Elwes, White). Abbreviated forms ("Prop.", "Coroll.")
// appear in some editions and are accepted.
var englishRules = []rule{
	{element.KindPart, regexp.MustCompile(`(?i)^\s*PART\s+` + ordinal + `\b`)},
	{element.KindDefinition, regexp.MustCompile(`(?i)^\s*DEF(?:INITION)?\.?\s+` + ordinal + `\b`)},
	{element.KindAxiom, regexp.MustCompile(`(?i)^\s*AX(?:IOM)?\.?\s+` + ordinal + `\b`)},
	{element.KindProposition, regexp.MustCompile(`(?i)^\s*PROP(?:OSITION)?\.?\s+` + ordinal + `\b`)},
	{element.KindDemonstration, regexp.MustCompile(`(?i)^\s*(?:DEMONSTRATION|PROOF)\b\.?(?:\s+` + ordinal + `\b)?`)},
	{element.KindScholium, regexp.MustCompile(`(?i)^\s*(?:SCHOLIUM|NOTE)\b\.?(?:\s+` + ordinal + `\b)?`)},
	{element.KindCorollary, regexp.MustCompile(`(?i)^\s*COROLL(?:ARY)?\.?\b(?:\s+` + ordinal + `\b)?`)},
}

// latinRules recognise the markers of the Latin original.
var latinRules = []rule{
	{element.KindPart, regexp.MustCompile(`(?i)^\s*PARS\s+` + ordinal + `\b`)},
	{element.KindDefinition, regexp.MustCompile(`(?i)^\s*DEFINITIO\s+` + ordinal + `\b`)},
	{element.KindAxiom, regexp.MustCompile(`(?i)^\s*AXIOMA\s+` + ordinal + `\b`)},
	{element.KindProposition, regexp.MustCompile(`(?i)^\s*PROPOSITIO\s+` + ordinal + `\b`)},
	{element.KindDemonstration, regexp.MustCompile(`(?i)^\s*DEMONSTRATIO\b\.?(?:\s+` + ordinal + `\b)?`)},
	{element.KindScholium, regexp.MustCompile(`(?i)^\s*SCHOLIUM\b\.?(?:\s+` + ordinal + `\b)?`)},
	{element.KindCorollary, regexp.MustCompile(`(?i)^\s*COROLLARIUM\b\.?(?:\s+` + ordinal + `\b)?`)},
}

// rulesFor returns the marker table for a language.
func rulesFor(language string) ([]rule, error) {
	switch language {
	case "", "english":
		return englishRules, nil
	case "latin":
		return latinRules, nil
	default:
		return nil, fmt.Errorf("no marker table for language: %s", language)
	}
}
