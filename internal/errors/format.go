package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	titleColor  = color.New(color.FgRed, color.Bold)
	labelColor  = color.New(color.FgYellow, color.Bold)
	detailColor = color.New(color.FgHiBlack)
)

// FormatError renders a CLIError with colors. Colors are dropped automatically when
// output is not a terminal or NO_COLOR is set.
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	return format(err, titleColor.Sprint, labelColor.Sprint, detailColor.Sprint)
}

// FormatErrorPlain renders a CLIError without escape codes.
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	return format(err, fmt.Sprint, fmt.Sprint, fmt.Sprint)
}

type sprint func(a ...interface{}) string

func format(err *CLIError, title, label, detail sprint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", title(err.Category.String()), err.Message)

	for _, d := range err.Details {
		fmt.Fprintf(&b, "  - %s\n", detail(d))
	}
	if err.Usage != "" {
		fmt.Fprintf(&b, "\n%s\n  %s\n", label("Usage:"), err.Usage)
	}
	if len(err.Remediation) > 0 {
		fmt.Fprintf(&b, "\n%s\n", label("To fix this:"))
		for i, step := range err.Remediation {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}
	return b.String()
}

// PrintError writes the formatted error to stderr.
func PrintError(err *CLIError) {
	FprintError(os.Stderr, err)
}

// FprintError writes the formatted error to w.
func FprintError(w io.Writer, err *CLIError) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}

// FormatSimpleError formats any error. CLIErrors keep their own category.
func FormatSimpleError(err error, category ErrorCategory) string {
	if err == nil {
		return ""
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return FormatError(cliErr)
	}
	return FormatError(&CLIError{Category: category, Message: err.Error()})
}
