package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// EventType identifies what happened during an identify run
type EventType int

const (
	EventRunStart EventType = iota
	EventRunComplete
	EventRegistryLoaded
	EventFileIdentified
	EventFileUnmatched
	EventMismatch
	EventSkipped
	EventFileWriting
	EventFileWritten
	EventInfo
)

// Event represents something that happened during an identify run
type Event struct {
	Type         EventType
	Path         string
	MimeType     string
	Info         string
	Reason       string
	FileCount    int
	MatchedCount int
	Duration     time.Duration
}

// Reporter is the interface the identify pipeline uses to report events
type Reporter interface {
	Report(event Event)
}

// Handler processes events and produces output
type Handler interface {
	Handle(event Event)
}

// Progress is the centralized verbose system
type Progress struct {
	enabled bool
	handler Handler
	started time.Time
}

// New creates a new progress reporter
func New(enabled bool, handler Handler) *Progress {
	if handler == nil {
		handler = NewSimpleHandler(os.Stderr)
	}
	return &Progress{
		enabled: enabled,
		handler: handler,
	}
}

// Enabled reports whether events reach the handler
func (p *Progress) Enabled() bool {
	return p.enabled
}

// Report sends an event to the handler (only if enabled)
func (p *Progress) Report(event Event) {
	if !p.enabled {
		return
	}
	p.handler.Handle(event)
}

// Convenience methods for the identify pipeline

func (p *Progress) RunStart(paths []string, excludePatterns []string) {
	p.started = time.Now()
	p.Report(Event{
		Type:   EventRunStart,
		Path:   strings.Join(paths, ", "),
		Reason: strings.Join(excludePatterns, ", "),
	})
}

// RunComplete reports the totals. The duration is measured from RunStart.
func (p *Progress) RunComplete(files, matched int) time.Duration {
	var duration time.Duration
	if !p.started.IsZero() {
		duration = time.Since(p.started)
	}
	p.Report(Event{
		Type:         EventRunComplete,
		FileCount:    files,
		MatchedCount: matched,
		Duration:     duration,
	})
	return duration
}

func (p *Progress) RegistryLoaded(types int, sources []string) {
	p.Report(Event{
		Type:      EventRegistryLoaded,
		FileCount: types,
		Info:      strings.Join(sources, ", "),
	})
}

func (p *Progress) FileIdentified(path, mimeType string) {
	p.Report(Event{
		Type:     EventFileIdentified,
		Path:     path,
		MimeType: mimeType,
	})
}

func (p *Progress) FileUnmatched(path, hint string) {
	p.Report(Event{
		Type: EventFileUnmatched,
		Path: path,
		Info: hint,
	})
}

func (p *Progress) Mismatch(path, mimeType, extensionMime string) {
	p.Report(Event{
		Type:     EventMismatch,
		Path:     path,
		MimeType: mimeType,
		Info:     extensionMime,
	})
}

func (p *Progress) Skipped(path, reason string) {
	p.Report(Event{
		Type:   EventSkipped,
		Path:   path,
		Reason: reason,
	})
}

func (p *Progress) FileWriting(path string) {
	p.Report(Event{
		Type: EventFileWriting,
		Path: path,
	})
}

func (p *Progress) FileWritten(path string) {
	p.Report(Event{
		Type: EventFileWritten,
		Path: path,
	})
}

func (p *Progress) Info(message string) {
	p.Report(Event{
		Type: EventInfo,
		Info: message,
	})
}

// SimpleHandler outputs events as tagged lines
type SimpleHandler struct {
	writer io.Writer
}

func NewSimpleHandler(writer io.Writer) *SimpleHandler {
	return &SimpleHandler{writer: writer}
}

func (h *SimpleHandler) Handle(event Event) {
	switch event.Type {
	case EventRunStart:
		fmt.Fprintf(h.writer, "[RUN]  Starting: %s\n", event.Path)
		if event.Reason != "" {
			fmt.Fprintf(h.writer, "[RUN]  Excluding: %s\n", event.Reason)
		}

	case EventRunComplete:
		fmt.Fprintf(h.writer, "[RUN]  Completed: %d files, %d identified in %.1fs\n",
			event.FileCount, event.MatchedCount, event.Duration.Seconds())

	case EventRegistryLoaded:
		if event.Info != "" {
			fmt.Fprintf(h.writer, "[REG]  Loaded %d file types (%s)\n", event.FileCount, event.Info)
		} else {
			fmt.Fprintf(h.writer, "[REG]  Loaded %d file types\n", event.FileCount)
		}

	case EventFileIdentified:
		fmt.Fprintf(h.writer, "[FILE] %s: %s\n", event.Path, event.MimeType)

	case EventFileUnmatched:
		if event.Info != "" {
			fmt.Fprintf(h.writer, "[FILE] %s: no signature (%s)\n", event.Path, event.Info)
		} else {
			fmt.Fprintf(h.writer, "[FILE] %s: no signature\n", event.Path)
		}

	case EventMismatch:
		if event.Info != "" {
			fmt.Fprintf(h.writer, "[WARN] %s: content is %s, extension suggests %s\n",
				event.Path, event.MimeType, event.Info)
		} else {
			fmt.Fprintf(h.writer, "[WARN] %s: content is %s, extension not registered\n",
				event.Path, event.MimeType)
		}

	case EventSkipped:
		fmt.Fprintf(h.writer, "[SKIP] %s (%s)\n", event.Path, event.Reason)

	case EventFileWriting:
		fmt.Fprintf(h.writer, "[OUT]  Writing results to: %s\n", event.Path)

	case EventFileWritten:
		fmt.Fprintf(h.writer, "[OUT]  Results written: %s\n", event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "[INFO] %s\n", event.Info)
	}
}

// NullHandler discards all events (for disabled verbose mode)
type NullHandler struct{}

func NewNullHandler() *NullHandler {
	return &NullHandler{}
}

func (h *NullHandler) Handle(event Event) {}
