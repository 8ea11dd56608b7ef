package verification

import (
	"fmt"
	"regexp"
	"strings"
)

// normalize folds case and surrounding space for name comparisons.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// excluded returns the first forbidden term contained in text.
func excluded(text string, exclusions []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, term := range exclusions {
		t := normalize(term)
		if t != "" && strings.Contains(lower, t) {
			return term, true
		}
	}
	return "", false
}

type textField struct {
	name string
	text string
}

// exclusionProblems checks each field for forbidden terms.
func exclusionProblems(exclusions []string, fields []textField) []string {
	if len(exclusions) == 0 {
		return nil
	}
	var problems []string
	for _, f := range fields {
		if term, ok := excluded(f.text, exclusions); ok {
			problems = append(problems, fmt.Sprintf("%s mentions excluded content %q", f.name, term))
		}
	}
	return problems
}

var playersMinusOneRe = regexp.MustCompile(`(?i)^(?:n|x|p|players|num[_ ]?players|number[_ ]of[_ ]players|player[_ ]count|jugadores|n[uú]mero[_ ]de[_ ]jugadores)\s*(?:-|−|minus|menos)\s*(?:1|one|uno)$`)

// IsPlayersMinusOne reports whether expr is a players-minus-one expression
// such as "players - 1", "number_of_players-1" or "jugadores menos uno".
func IsPlayersMinusOne(expr string) bool {
	e := strings.TrimSpace(expr)
	for strings.HasPrefix(e, "(") && strings.HasSuffix(e, ")") {
		e = strings.TrimSpace(e[1 : len(e)-1])
	}
	return playersMinusOneRe.MatchString(e)
}

// hardcodedCountRe builds a matcher for a number that directly quantifies
// term: "<digits> [cartas de] <term>" with optional plural suffixes.
func hardcodedCountRe(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(\d+)\s+(?:cartas?\s+(?:de\s+)?)?` + regexp.QuoteMeta(term) + `(?:s|es)?(?:[^\p{L}]|$)`)
}

var minusSuffixRe = regexp.MustCompile(`(?i)(?:-|−|minus|menos)$`)

// hardcodedCounts returns the digit counts of term found in text that are
// not the subtrahend of a minus-one expression.
func hardcodedCounts(text, term string) []string {
	re := hardcodedCountRe(term)
	var found []string
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		before := strings.TrimSpace(text[:m[2]])
		if minusSuffixRe.MatchString(before) {
			continue
		}
		found = append(found, strings.TrimSpace(text[m[0]:m[1]]))
	}
	return found
}
