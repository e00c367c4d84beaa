package progress

import (
	"fmt"

	"github.com/fatih/color"
)

func formatStepCounter(number, total int) string {
	return fmt.Sprintf("[%d/%d]", number, total)
}

func buildStepMessage(step StepInfo) string {
	return fmt.Sprintf("%s %s...", formatStepCounter(step.Number, step.Total), step.Name)
}

func checkmark(symbols ProgressSymbols, supportsColor bool) string {
	if !supportsColor {
		return symbols.Checkmark
	}
	return colorize(color.FgGreen, symbols.Checkmark)
}

func failureMark(symbols ProgressSymbols, supportsColor bool) string {
	if !supportsColor {
		return symbols.Failure
	}
	return colorize(color.FgRed, symbols.Failure)
}

// colorize forces the escape codes; the caller has already decided color is wanted.
func colorize(attr color.Attribute, s string) string {
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
