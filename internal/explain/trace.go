package explain

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/ppiankov/attrib/internal/model"
)

// tracer prints the per-segment diagnostic trace in verbose mode
type tracer struct {
	mu     sync.Mutex // one segment block at a time
	w      io.Writer
	label  *color.Color
	good   *color.Color
	faint  *color.Color
	ruling string
}

func newTracer(w io.Writer, colored bool) *tracer {
	t := &tracer{
		w:      w,
		label:  color.New(color.Bold),
		good:   color.New(color.FgGreen),
		faint:  color.New(color.FgYellow),
		ruling: strings.Repeat("-", 50),
	}
	if !colored {
		t.label.DisableColor()
		t.good.DisableColor()
		t.faint.DisableColor()
	}
	return t
}

// segment prints one record followed by the running response and explanation
func (t *tracer) segment(rec model.AttributionRecord, text, explanation string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.label.Fprint(t.w, "Response Segment: ")
	fmt.Fprintln(t.w, rec.Segment)

	if rec.Matched {
		t.label.Fprint(t.w, "Attributed Context: ")
		fmt.Fprintln(t.w, *rec.Context)
		t.label.Fprint(t.w, "Source Name: ")
		fmt.Fprintln(t.w, *rec.SourceName)
		t.label.Fprint(t.w, "Original Context: ")
		fmt.Fprintln(t.w, *rec.OriginalContext)
		t.good.Fprintf(t.w, "Similarity Score: %.2f%%\n", rec.Score)
	} else {
		t.faint.Fprintln(t.w, "No context meets the similarity threshold.")
		t.faint.Fprintf(t.w, "Highest Similarity Score: %.2f%%\n", rec.Score)
	}

	fmt.Fprintln(t.w, t.ruling)
	t.label.Fprintln(t.w, "\nText Response:")
	fmt.Fprintln(t.w, text)
	t.label.Fprintln(t.w, "\nText Explanation (JSON):")
	fmt.Fprintln(t.w, explanation)
	fmt.Fprintln(t.w, t.ruling)
}
