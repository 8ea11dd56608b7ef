package prompt

import (
	"fmt"
	"strings"
)

// CorrectionsHeader opens the section appended to a prompt after a rejected
// attempt.
const CorrectionsHeader = "## Corrections required"

// Refine returns the prompt for the next attempt: previous without any
// earlier corrections, followed by one bullet per problem. Without problems
// the base prompt is returned unchanged.
func Refine(previous string, problems ...string) string {
	base := Base(previous)
	var lines []string
	for _, p := range problems {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	if len(lines) == 0 {
		return base
	}
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\n")
	sb.WriteString(CorrectionsHeader)
	sb.WriteString("\nThe previous answer was rejected. Fix these problems and answer again:\n")
	for _, line := range lines {
		fmt.Fprintf(&sb, "- %s\n", line)
	}
	return sb.String()
}

// Base strips the corrections section from p.
func Base(p string) string {
	if i := strings.Index(p, "\n\n"+CorrectionsHeader); i >= 0 {
		return p[:i]
	}
	return strings.TrimRight(p, "\n")
}
