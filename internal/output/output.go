// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Writer prints user-facing CLI output. Icons and separators are only
// used on interactive terminals; piped output stays plain.
type Writer struct {
	out io.Writer
	tty bool
}

// New creates a Writer. TTY detection applies only when out is
// os.Stdout or os.Stderr.
func New(out io.Writer) *Writer {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Writer{out: out, tty: tty}
}

// Plain creates a Writer that never decorates.
func Plain(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write errors are intentionally ignored for console output.

// Printf prints a plain formatted line.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Println prints a plain line.
func (w *Writer) Println(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Successf prints a success line.
func (w *Writer) Successf(format string, args ...any) {
	w.status("✓", format, args...)
}

// Warningf prints a warning line.
func (w *Writer) Warningf(format string, args ...any) {
	w.status("!", format, args...)
}

// Errorf prints an error line.
func (w *Writer) Errorf(format string, args ...any) {
	w.status("✗", format, args...)
}

// Separator prints a result separator on interactive terminals only.
func (w *Writer) Separator(index, total int) {
	if w.tty {
		_, _ = fmt.Fprintf(w.out, "--- %d/%d ---\n", index, total)
	}
}

func (w *Writer) status(icon, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.tty {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintln(w.out, msg)
}
