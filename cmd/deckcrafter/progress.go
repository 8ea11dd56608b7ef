package main

import (
	"fmt"
	"io"
	"sync"

	"deckcrafter/internal/workflow"
)

// progressPrinter writes workflow events as they happen. Parallel runs share
// one printer.
type progressPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	multi bool
}

func newProgressPrinter(out io.Writer, multi bool) *progressPrinter {
	return &progressPrinter{out: out, multi: multi}
}

func (p *progressPrinter) observe(e workflow.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prefix := ""
	if p.multi {
		prefix = mutedStyle.Render(shortID(e.GameID)) + " "
	}
	switch e.Type {
	case workflow.EventStageStarted:
		fmt.Fprintf(p.out, "%s%s generating %s...\n", prefix, mutedStyle.Render("»"), e.Stage)
	case workflow.EventAttemptFailed:
		fmt.Fprintf(p.out, "%s%s %s attempt %d rejected: %s\n", prefix, warnStyle.Render("!"), e.Stage, e.Attempt, e.Reason)
	case workflow.EventStageCompleted:
		fmt.Fprintf(p.out, "%s%s %s accepted\n", prefix, successStyle.Render("✓"), e.Stage)
	case workflow.EventRunAborted:
		fmt.Fprintf(p.out, "%s%s run aborted at %s: %s\n", prefix, errorStyle.Render("✗"), e.Stage, e.Reason)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
