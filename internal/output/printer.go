// Package output formats terminal output for pipeline runs.
//
// The [Printer] renders step headers, per-step outcomes, and build
// summaries with lipgloss styling. All output goes through an injected
// writer so tests can capture it with a bytes.Buffer.
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"stepline/internal/build"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Printer writes formatted run output.
type Printer struct {
	w       io.Writer
	maxLine int
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w. Tests pass a
// bytes.Buffer here.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// SetMaxLineLength caps streamed step output lines at n bytes. Zero
// disables truncation. Only [Printer.Writer] output is affected; the
// printer's own lines are never cut.
func (p *Printer) SetMaxLineLength(n int) {
	p.maxLine = n
}

// Writer returns a writer for streaming raw step output interleaved with
// the printer's own lines. When a maximum line length is set, lines
// beyond it are cut with a marker. Each call returns a fresh writer, so
// per-step line state does not leak between steps.
func (p *Printer) Writer() io.Writer {
	if p.maxLine > 0 {
		return newTruncatingWriter(p.w, p.maxLine)
	}
	return p.w
}

// StepHeader announces a step before it runs.
func (p *Printer) StepHeader(index, total int, label string) {
	fmt.Fprintf(p.w, "\n%s %s\n", dimStyle.Render(fmt.Sprintf("[%d/%d]", index, total)), headerStyle.Render(label))
}

// StepOutcome reports a finished step.
func (p *Printer) StepOutcome(label string, status build.Status, exitCode int, d time.Duration) {
	switch status {
	case build.StatusPassed:
		fmt.Fprintf(p.w, "%s %s %s\n", passStyle.Render("✓"), label, dimStyle.Render(d.Round(time.Millisecond).String()))
	case build.StatusSkipped:
		fmt.Fprintf(p.w, "%s %s %s\n", skipStyle.Render("○"), label, skipStyle.Render("(skipped)"))
	case build.StatusTimedOut:
		fmt.Fprintf(p.w, "%s %s %s\n", failStyle.Render("✗"), label, failStyle.Render("(timed out)"))
	case build.StatusCanceled:
		fmt.Fprintf(p.w, "%s %s %s\n", failStyle.Render("✗"), label, failStyle.Render("(canceled)"))
	default:
		fmt.Fprintf(p.w, "%s %s %s\n", failStyle.Render("✗"), label,
			failStyle.Render(fmt.Sprintf("(exit %d, %s)", exitCode, d.Round(time.Millisecond))))
	}
}

// Barrier announces a wait barrier decision.
func (p *Printer) Barrier(continuing bool) {
	if continuing {
		fmt.Fprintf(p.w, "\n%s\n", dimStyle.Render("--- wait (continuing despite failures) ---"))
		return
	}
	fmt.Fprintf(p.w, "\n%s\n", dimStyle.Render("--- wait ---"))
}

// Summary renders the final build table.
func (p *Printer) Summary(b *build.Build) {
	fmt.Fprintf(p.w, "\n")
	if b.Status == build.StatusPassed {
		fmt.Fprintf(p.w, "%s", passStyle.Render("Build passed"))
	} else {
		fmt.Fprintf(p.w, "%s", failStyle.Render("Build "+string(b.Status)))
	}
	fmt.Fprintf(p.w, " %s %s\n", dimStyle.Render(b.ID), dimStyle.Render(b.Duration().Round(time.Millisecond).String()))

	for _, s := range b.Steps {
		p.StepOutcome(s.Label, s.Status, s.ExitCode, s.Duration)
	}
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.w, "%s\n", failStyle.Render(fmt.Sprintf(format, args...)))
}
