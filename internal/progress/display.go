package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Display renders step progress to a writer.
type Display struct {
	capabilities TerminalCapabilities
	out          io.Writer
	spinner      *spinner.Spinner
	symbols      ProgressSymbols
}

// NewDisplay creates a display writing to out with the given terminal capabilities.
func NewDisplay(caps TerminalCapabilities, out io.Writer) *Display {
	return &Display{
		capabilities: caps,
		out:          out,
		symbols:      SelectSymbols(caps),
	}
}

// Start begins displaying a step. On a terminal a spinner runs until the step ends.
func (d *Display) Start(step StepInfo) error {
	if err := step.Validate(); err != nil {
		return err
	}
	d.Stop()

	msg := buildStepMessage(step)
	if d.capabilities.IsTTY {
		d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond,
			spinner.WithWriter(d.out))
		d.spinner.Suffix = " " + msg
		d.spinner.Start()
		return nil
	}
	fmt.Fprintln(d.out, msg)
	return nil
}

// Complete stops the spinner and prints a success line with an optional detail.
func (d *Display) Complete(step StepInfo, detail string) {
	d.Stop()
	line := fmt.Sprintf("%s %s %s", checkmark(d.symbols, d.capabilities.SupportsColor),
		formatStepCounter(step.Number, step.Total), step.Name)
	if detail != "" {
		line += ": " + detail
	}
	fmt.Fprintln(d.out, line)
}

// Fail stops the spinner and prints the failure.
func (d *Display) Fail(step StepInfo, err error) {
	d.Stop()
	fmt.Fprintf(d.out, "%s %s %s failed: %v\n", failureMark(d.symbols, d.capabilities.SupportsColor),
		formatStepCounter(step.Number, step.Total), step.Name, err)
}

// Stop stops the spinner without printing a status.
func (d *Display) Stop() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
