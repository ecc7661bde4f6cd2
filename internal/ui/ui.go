// Package ui prints user-facing progress and results to the console.
// It is not a logging layer; diagnostics go through charmbracelet/log.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Reporter writes styled console output. The zero value is unusable;
// construct with New.
type Reporter struct {
	out io.Writer
}

// New builds a Reporter writing to stdout.
func New() *Reporter {
	return &Reporter{out: os.Stdout}
}

// NewWriter builds a Reporter writing to w, for tests.
func NewWriter(w io.Writer) *Reporter {
	return &Reporter{out: w}
}

// Step announces the app being processed.
func (r *Reporter) Step(format string, args ...any) {
	fmt.Fprintln(r.out, color.BlueString("📦 ")+fmt.Sprintf(format, args...))
}

// Detail prints an indented secondary line.
func (r *Reporter) Detail(format string, args ...any) {
	fmt.Fprintln(r.out, color.New(color.FgHiBlack).Sprint("   └ ")+fmt.Sprintf(format, args...))
}

// Success reports a completed or already-satisfied app.
func (r *Reporter) Success(format string, args ...any) {
	fmt.Fprintln(r.out, color.GreenString("✅ ")+fmt.Sprintf(format, args...))
}

// Info reports a neutral fact, e.g. an available update in check mode.
func (r *Reporter) Info(format string, args ...any) {
	fmt.Fprintln(r.out, color.CyanString("🔎 ")+fmt.Sprintf(format, args...))
}

// Warn reports a non-fatal condition, e.g. a skipped app.
func (r *Reporter) Warn(format string, args ...any) {
	fmt.Fprintln(r.out, color.YellowString("⚠️  ")+fmt.Sprintf(format, args...))
}

// Fail reports a per-app failure.
func (r *Reporter) Fail(format string, args ...any) {
	fmt.Fprintln(r.out, color.RedString("❌ ")+fmt.Sprintf(format, args...))
}
