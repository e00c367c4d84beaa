// Package validation decides whether an inspection is complete enough to be reported.
//
// ValidateFinalReport walks the schema registry in declaration order over an index of the
// stored rows and emits tagged diagnostics in a single pass. Critical diagnostics block
// report generation; the rest only mark the inspection incomplete.
package validation

import (
	"fmt"
	"strings"
)

// Severity tags a diagnostic.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityCritical Severity = "critical"
)

// Kind classifies what a diagnostic is about.
type Kind string

const (
	KindModule      Kind = "module"
	KindField       Kind = "field"
	KindOther       Kind = "other_specification"
	KindPhoto       Kind = "photo"
	KindGlobalPhoto Kind = "global_photo"
	KindSystem      Kind = "system"
)

// Diagnostic is one finding of the discovery pass.
type Diagnostic struct {
	Severity     Severity `json:"severity"`
	Kind         Kind     `json:"kind"`
	ModuleID     string   `json:"module_id,omitempty"`
	Name         string   `json:"name,omitempty"`
	MissingField string   `json:"missing_field"`
	Sentence     string   `json:"sentence"`
}

// Result is the outcome of a final report validation.
type Result struct {
	IsValid        bool         `json:"is_valid"`
	MissingFields  []string     `json:"missing_fields"`
	ErrorsSample   []string     `json:"errors_sample"`
	CriticalErrors []string     `json:"critical_errors"`
	Diagnostics    []Diagnostic `json:"diagnostics,omitempty"`
}

// Fail-closed sentinels returned when the stored data cannot be read.
const (
	FailClosedMissingField = "Erro na validação"
	FailClosedCritical     = "Erro interno no sistema de validação. Tente novamente."
)

// fold builds a Result from diagnostics in discovery order. Every diagnostic contributes a
// missing-field entry and an error sentence; critical ones also contribute to CriticalErrors.
func fold(diags []Diagnostic) Result {
	r := Result{
		MissingFields:  []string{},
		ErrorsSample:   []string{},
		CriticalErrors: []string{},
		Diagnostics:    diags,
	}
	for _, d := range diags {
		r.MissingFields = append(r.MissingFields, d.MissingField)
		r.ErrorsSample = append(r.ErrorsSample, d.Sentence)
		if d.Severity == SeverityCritical {
			r.CriticalErrors = append(r.CriticalErrors, d.Sentence)
		}
	}
	r.IsValid = len(r.MissingFields) == 0 && len(r.CriticalErrors) == 0
	return r
}

// failClosed is the result of a validation that could not run.
func failClosed() Result {
	return fold([]Diagnostic{{
		Severity:     SeverityCritical,
		Kind:         KindSystem,
		MissingField: FailClosedMissingField,
		Sentence:     FailClosedCritical,
	}})
}

// HasCritical reports whether report generation is blocked.
func (r Result) HasCritical() bool {
	return len(r.CriticalErrors) > 0
}

// Summary is a one-line description of the result.
func (r Result) Summary() string {
	if r.IsValid {
		return "Vistoria completa: pronta para gerar o relatório."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Vistoria incompleta: %d pendência(s)", len(r.MissingFields))
	if n := len(r.CriticalErrors); n > 0 {
		fmt.Fprintf(&b, ", %d crítica(s)", n)
	}
	b.WriteString(".")
	return b.String()
}
