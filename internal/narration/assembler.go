// Package narration renders a recording's narration events as guide text.
package narration

import (
	"fmt"
	"strings"
	"time"

	"github.com/wakana-code/station-navi-app/internal/models"
)

// Fixed guide text
const (
	Header   = "[Auto-generated guide]"
	Preamble = "1. Exit through the gate, then proceed straight."
	Closing  = "- Finally, you arrive at your destination!"
)

// DefaultSkew is how long after the walker actually started a manoeuvre it is
// detected.
const DefaultSkew = 8 * time.Second

// Options control how event timestamps are rendered.
type Options struct {
	Skew     time.Duration  // subtracted from every event timestamp
	Location *time.Location // nil means time.Local
}

// DefaultOptions returns the options used when publishing a route.
func DefaultOptions() Options {
	return Options{Skew: DefaultSkew, Location: time.Local}
}

// Assemble builds the guide text: a preamble, one line per event in the
// given order, and a closing line. Events are never dropped or reordered.
func Assemble(events []models.NarrationEvent, opts Options) string {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	b.WriteString(Preamble)
	b.WriteByte('\n')
	for _, ev := range events {
		fmt.Fprintf(&b, "- Around %s, %s.\n", EventClock(ev, opts.Skew, loc), ev.Kind.Label())
	}
	b.WriteString(Closing)
	return b.String()
}

// EventClock renders the wall-clock time an event's manoeuvre began.
func EventClock(ev models.NarrationEvent, skew time.Duration, loc *time.Location) string {
	return time.UnixMilli(ev.EmittedAtMs).Add(-skew).In(loc).Format("15:04:05")
}
