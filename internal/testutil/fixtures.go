// Package testutil provides fixtures and helpers for vistoria tests.
package testutil

import (
	"maps"
	"sort"

	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
)

// CompleteValues returns a fully filled inspection for a CONVENCIONAL cabin, keyed by
// module then field. Every call returns a fresh copy.
func CompleteValues() map[string]map[string]string {
	return map[string]map[string]string{
		"client": {
			"client_name":    "Condomínio São João",
			"work_site":      "Subestação Bloco A",
			"address":        "Rua das Flores, 100",
			"contact_name":   "Maria Souza",
			"contact_email":  "maria@saojoao.com.br",
			"execution_date": "2026-03-14",
			"technician":     "João Silva",
			"authorization":  "true",
		},
		"cabin_type": {
			"cabin_type":        "CONVENCIONAL",
			"supply_voltage":    "13,8 kV",
			"installed_power":   "500",
			"protection_type":   "Disjuntor",
			"masonry_condition": "Bom",
			"ventilation":       "Natural",
		},
		"procedures": {
			"de_energization":      "Sim",
			"de_energization_time": "08:00",
			"lockout_tagout":       "true",
			"ppe_used":             "Luvas Isolantes",
		},
		"maintenance": {
			"last_maintenance_date": "2025-03-10",
			"maintenance_company":   "Eletro Manutenção Ltda",
			"maintenance_type":      "Preventiva",
		},
		"transformers": {
			"transformer_count":                 "1",
			"transformer_power":                 "500",
			"manufacturer":                      "WEG",
			"insulation_type":                   "Óleo",
			"oil_level":                         "Normal",
			"measurement_oil_temperature":       "62",
			"measurement_insulation_resistance": "1500",
		},
		"grid": {
			"measurement_grounding_resistance": "4.2",
			"grounding_condition":              "Bom",
		},
		"mt": {
			"mt_cables_condition":  "Bom",
			"insulators_condition": "Bom",
		},
		"bt": {
			"main_breaker_rating":    "800",
			"panel_condition":        "Regular",
			"measurement_bt_voltage": "220",
		},
		"epcs": {
			"signage": "Adequada",
		},
		"general": {
			"general_condition": "Bom",
			"irregularities":    "Nenhuma irregularidade relevante.",
			"conclusion":        "Instalação em condições adequadas de operação.",
			"recommendations":   "Repetir inspeção em 12 meses.",
		},
		"reconnection": {
			"reconnection_time":        "11:30",
			"reconnection_responsible": "João Silva",
			"reconnection_ok":          "true",
		},
	}
}

// CompleteMedia returns the photos that satisfy every module and global photo requirement.
func CompleteMedia(inspectionID string) []store.MediaRow {
	photo := func(module, photoType string) store.MediaRow {
		return store.MediaRow{
			ID:           module + "-" + photoType,
			InspectionID: inspectionID,
			ModuleType:   module,
			FileName:     photoType + ".jpg",
			FilePath:     "/photos/" + photoType + ".jpg",
			FileType:     "image/jpeg",
			IsRequired:   true,
			PhotoType:    photoType,
		}
	}
	return []store.MediaRow{
		photo("client", "facade"),
		photo("transformers", "transformer_proximity"),
		photo("transformers", "nameplate"),
		photo("bt", "main_panel"),
	}
}

// Rows flattens values into field rows annotated with the registry's field specs,
// ordered by module then field like the store returns them.
func Rows(inspectionID string, values map[string]map[string]string) []store.FieldRow {
	reg := schema.Default()
	modules := make([]string, 0, len(values))
	for id := range values {
		modules = append(modules, id)
	}
	sort.Strings(modules)

	var rows []store.FieldRow
	for _, id := range modules {
		m, ok := reg.Module(id)
		if !ok {
			m = &schema.ModuleConfig{ID: id}
		}
		rows = append(rows, store.BuildFieldRows(inspectionID, m, values[id])...)
	}
	return rows
}

// Without returns a copy of media minus the rows with the given photo type.
func Without(media []store.MediaRow, photoType string) []store.MediaRow {
	var out []store.MediaRow
	for _, m := range media {
		if m.PhotoType != photoType {
			out = append(out, m)
		}
	}
	return out
}

// Set returns a copy of values with module.field set to value; an empty value deletes it.
func Set(values map[string]map[string]string, module, field, value string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(values))
	for k, v := range values {
		out[k] = maps.Clone(v)
	}
	if out[module] == nil {
		out[module] = map[string]string{}
	}
	if value == "" {
		delete(out[module], field)
	} else {
		out[module][field] = value
	}
	return out
}
