package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Reporter receives progress events from Run.
type Reporter interface {
	Header(title string)
	Start(name string)
	Pass(name, note string)
	Fail(name, note, message string)
	Summary(passed, failed int)
}

// NopReporter discards all events. Used for structured (json/yaml) output.
type NopReporter struct{}

func (NopReporter) Header(string) {}
func (NopReporter) Start(string) {}
func (NopReporter) Pass(string, string) {}
func (NopReporter) Fail(string, string, string) {}
func (NopReporter) Summary(int, int) {}

const (
	separatorWidth = 60
	passMarker     = "✓ PASS"
	failMarker     = "✗ FAIL"
)

// TextReporter prints the human-readable report.
type TextReporter struct {
	w    io.Writer
	pass *color.Color
	fail *color.Color
}

// NewTextReporter creates a reporter writing to w. When colored is false the
// PASS/FAIL markers are printed without escape sequences.
func NewTextReporter(w io.Writer, colored bool) *TextReporter {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	if colored {
		pass.EnableColor()
		fail.EnableColor()
	} else {
		pass.DisableColor()
		fail.DisableColor()
	}
	return &TextReporter{w: w, pass: pass, fail: fail}
}

func (r *TextReporter) separator() string {
	return strings.Repeat("=", separatorWidth)
}

func (r *TextReporter) Header(title string) {
	fmt.Fprintf(r.w, "\n%s\n%s\n%s\n\n", r.separator(), title, r.separator())
}

func (r *TextReporter) Start(name string) {
	fmt.Fprintf(r.w, "Testing: %s... ", name)
}

func (r *TextReporter) Pass(_ string, note string) {
	r.note(note)
	fmt.Fprintln(r.w, r.pass.Sprint(passMarker))
}

func (r *TextReporter) Fail(_ string, note, message string) {
	r.note(note)
	fmt.Fprintln(r.w, r.fail.Sprint(failMarker))
	fmt.Fprintf(r.w, "  Error: %s\n", message)
}

func (r *TextReporter) Summary(passed, failed int) {
	fmt.Fprintf(r.w, "\n%s\nResults: %d passed, %d failed\n%s\n\n", r.separator(), passed, failed, r.separator())
}

func (r *TextReporter) note(note string) {
	if note != "" {
		fmt.Fprintf(r.w, "%s ", note)
	}
}
