package report

import (
	"strconv"
	"strings"
)

// Mode selects how a renderer presents the report.
type Mode string

const (
	// ModeCompatibility reproduces the legacy layout: numbered upper-case titles and no
	// maintenance history section.
	ModeCompatibility Mode = "compatibility"
	// ModeEnriched adds the maintenance history section.
	ModeEnriched Mode = "enriched"
)

// IsValid returns true if the mode is a recognized value.
func (m Mode) IsValid() bool {
	return m == ModeCompatibility || m == ModeEnriched
}

// SectionID names a report section.
type SectionID string

const (
	SectionInitialData        SectionID = "initial_data"
	SectionProcedures         SectionID = "procedures"
	SectionTestResults        SectionID = "test_results"
	SectionMaintenanceHistory SectionID = "maintenance_history"
	SectionTransformers       SectionID = "transformers"
	SectionIrregularities     SectionID = "irregularities"
	SectionConclusion         SectionID = "conclusion"
	SectionAttachments        SectionID = "attachments"
)

// Section is one titled part of a rendered report.
type Section struct {
	ID    SectionID
	Title string
	// Modules lists the schema modules printed in this section, in order.
	Modules []string
}

var allSections = []Section{
	{ID: SectionInitialData, Title: "Dados Iniciais", Modules: []string{"client", "cabin_type"}},
	{ID: SectionProcedures, Title: "Procedimentos", Modules: []string{"procedures"}},
	{ID: SectionTestResults, Title: "Resultados dos Testes", Modules: []string{"grid", "mt", "bt", "measurements"}},
	{ID: SectionMaintenanceHistory, Title: "Histórico de Manutenção", Modules: []string{"maintenance"}},
	{ID: SectionTransformers, Title: "Transformadores", Modules: []string{"transformers"}},
	{ID: SectionIrregularities, Title: "Irregularidades", Modules: []string{"epcs"}},
	{ID: SectionConclusion, Title: "Conclusão", Modules: []string{"general", "reconnection"}},
	{ID: SectionAttachments, Title: "Anexos Fotográficos", Modules: []string{"additional_photos"}},
}

// Sections returns the ordered sections a renderer prints in mode. Unknown modes render
// as enriched.
func Sections(mode Mode) []Section {
	out := make([]Section, 0, len(allSections))
	n := 0
	for _, s := range allSections {
		if mode == ModeCompatibility {
			if s.ID == SectionMaintenanceHistory {
				continue
			}
			n++
			s.Title = strconv.Itoa(n) + ". " + strings.ToUpper(s.Title)
		}
		out = append(out, s)
	}
	return out
}

// ModulesIn returns the collected modules printed in section s, in section order.
func (r *Report) ModulesIn(s Section) []Module {
	var out []Module
	for _, id := range s.Modules {
		for _, m := range r.Modules {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out
}
