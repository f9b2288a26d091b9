package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for status output.
type Theme struct {
	Primary lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Warning: lipgloss.Color("#ffb000"),
	Error:   lipgloss.Color("#ff5f5f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Code    lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Success: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Info:    lipgloss.NewStyle().Foreground(t.Primary),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Code:    lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Printer writes styled status lines. Errors go to Err, everything else to
// Out.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Styles Styles
}

// NewPrinter returns a Printer using DefaultTheme.
func NewPrinter(out, err io.Writer) *Printer {
	return &Printer{Out: out, Err: err, Styles: NewStyles(DefaultTheme)}
}

// Success prints a success message with checkmark
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Info.Render("ℹ ")+fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Warning.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message to Err
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.Err, p.Styles.Error.Render("Error: ")+fmt.Sprintf(format, args...))
}

// Progress renders a fixed-width bar such as "[█████░░░░░] 50%".
func (s Styles) Progress(frac float64, width int) string {
	frac = min(max(frac, 0), 1)
	width = max(width, 1)
	filled := int(frac * float64(width))
	bar := s.Success.Render(strings.Repeat("█", filled)) + s.Dim.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("[%s] %3d%%", bar, int(frac*100))
}
