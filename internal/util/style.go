package util

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styler renders text output, colored only when writing to a terminal
type Styler struct {
	enabled bool
	match   lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	heading lipgloss.Style
}

// NewStyler creates a styler for w. Styling is off when noColor is set or w is not a terminal.
func NewStyler(w io.Writer, noColor bool) *Styler {
	return &Styler{
		enabled: !noColor && IsTerminal(w),
		match:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		heading: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// IsTerminal reports whether w is a terminal (including Cygwin/MSYS)
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled reports whether styling is applied
func (s *Styler) Enabled() bool {
	return s.enabled
}

func (s *Styler) Match(text string) string {
	return s.render(s.match, text)
}

func (s *Styler) Warn(text string) string {
	return s.render(s.warn, text)
}

func (s *Styler) Muted(text string) string {
	return s.render(s.muted, text)
}

func (s *Styler) Heading(text string) string {
	return s.render(s.heading, text)
}

func (s *Styler) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}
