package cmd

import (
	"fmt"
	"io"

	"github.com/petrarca/magicbytes/internal/aggregator"
	"github.com/petrarca/magicbytes/internal/util"
)

// AggregateResult renders an aggregator.AggregateOutput
type AggregateResult struct {
	*aggregator.AggregateOutput
}

func (r *AggregateResult) ToJSON() interface{} {
	return r.AggregateOutput
}

func (r *AggregateResult) ToText(w io.Writer, style *util.Styler) {
	writeCounts(w, style, "MIME types", r.MimeTypes)
	writeCounts(w, style, "Categories", r.Categories)
	writeCounts(w, style, "Languages", r.Languages)
	writeCounts(w, style, "Extensions", r.Extensions)

	if len(r.Mismatches) > 0 {
		fmt.Fprintln(w, style.Heading("Mismatches"))
		for _, m := range r.Mismatches {
			suggested := m.ExtensionMime
			if suggested == "" {
				suggested = "unregistered"
			}
			fmt.Fprintf(w, "  %s: %s %s\n", m.Path, style.Match(m.MimeType),
				style.Warn(fmt.Sprintf("[extension .%s suggests %s]", m.Extension, suggested)))
		}
		fmt.Fprintln(w)
	}

	for _, msg := range r.Errors {
		fmt.Fprintf(w, "%s\n", style.Warn("error: "+msg))
	}

	if m := r.Metadata; m != nil {
		fmt.Fprintf(w, "%d files, %d identified, %d unmatched, %d mismatched\n",
			m.FileCount, m.MatchedCount, r.Unmatched, m.MismatchCount)
	}
}

func writeCounts(w io.Writer, style *util.Styler, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w, style.Heading(title))
	for _, entry := range aggregator.Sorted(counts) {
		fmt.Fprintf(w, "  %-40s %d\n", entry.Key, entry.Count)
	}
	fmt.Fprintln(w)
}
