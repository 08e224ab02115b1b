package parser

import (
	"strconv"
	"strings"
)

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

// romanToInt converts a roman numeral to its integer value. Returns
// false for strings containing non-roman characters.
func romanToInt(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total, true
}

// ParseOrdinal interprets a printed ordinal that may be either a roman
// numeral or an arabic number. Returns 0 when the string is neither. The
// resolver shares it to read ordinals out of citation phrases.
func ParseOrdinal(s string) int {
	s = strings.TrimRight(strings.TrimSpace(s), ".")
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if n, ok := romanToInt(s); ok {
		return n
	}
	return 0
}
