package prompt

import (
	"fmt"
	"strings"
)

// CardRequest describes what a retry of the cards stage must return for one
// card type.
type CardRequest struct {
	Type string
	// NewUnique is the number of new distinct card names required.
	NewUnique int
	// Copies is the number of copies the returned cards must add.
	Copies int
	// Total and TotalUnique are the declared figures for the type.
	Total       int
	TotalUnique int
	// Regenerate discards every card previously generated for the type.
	Regenerate bool
	// Keep lists the accepted card names of the type.
	Keep []string
	// Reduced lists kept cards whose quantity was lowered to make room for
	// the new cards.
	Reduced []CardQuantity
}

// CardQuantity is the corrected number of copies of one kept card.
type CardQuantity struct {
	Name     string
	Quantity int
}

func (r CardRequest) String() string {
	if r.Regenerate {
		return fmt.Sprintf("%s: discard the previous %s cards and generate exactly %d unique cards with %d copies in total",
			r.Type, r.Type, r.TotalUnique, r.Total)
	}
	var sb strings.Builder
	if r.NewUnique > 0 {
		fmt.Fprintf(&sb, "%s: generate exactly %d new unique %s card(s) adding %d copies, so the type totals %d unique cards and %d copies",
			r.Type, r.NewUnique, r.Type, r.Copies, r.TotalUnique, r.Total)
	} else {
		fmt.Fprintf(&sb, "%s: resend existing cards with corrected quantity adding %d copies, so the type totals %d copies",
			r.Type, r.Copies, r.Total)
	}
	if len(r.Keep) > 0 {
		fmt.Fprintf(&sb, " (already accepted: %s)", strings.Join(r.Keep, ", "))
	}
	if len(r.Reduced) > 0 {
		reduced := make([]string, 0, len(r.Reduced))
		for _, q := range r.Reduced {
			reduced = append(reduced, fmt.Sprintf("%s now has %d copies", q.Name, q.Quantity))
		}
		fmt.Fprintf(&sb, "; kept quantities were lowered: %s", strings.Join(reduced, ", "))
	}
	return sb.String()
}

// CardCorrections renders the retry instructions for the cards stage: one
// item per requested type followed by the answer format reminder.
func CardCorrections(requests []CardRequest) []string {
	if len(requests) == 0 {
		return nil
	}
	parts := make([]string, 0, len(requests)+1)
	for _, r := range requests {
		parts = append(parts, r.String())
	}
	return append(parts, "return only cards for the listed types; quantity is the final number of copies of each card")
}
