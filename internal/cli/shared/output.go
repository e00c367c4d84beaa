package shared

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	titleColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.Faint)
)

// Success prints a green line.
func Success(w io.Writer, format string, a ...any) {
	okColor.Fprintf(w, format+"\n", a...)
}

// Warn prints a yellow line.
func Warn(w io.Writer, format string, a ...any) {
	warnColor.Fprintf(w, format+"\n", a...)
}

// Failure prints a red line.
func Failure(w io.Writer, format string, a ...any) {
	errColor.Fprintf(w, format+"\n", a...)
}

// Title prints a bold heading.
func Title(w io.Writer, format string, a ...any) {
	titleColor.Fprintf(w, format+"\n", a...)
}

// Dim returns s rendered faint.
func Dim(s string) string {
	return dimColor.Sprint(s)
}

// KeyValue prints an aligned "key: value" line.
func KeyValue(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %-16s %v\n", key+":", value)
}
