// Package report assembles the canonical report object of an inspection.
//
// Collect gathers every module, measurement, checklist result and photo regardless of the
// rendering mode. The mode only selects which sections a renderer prints and how it
// titles them (see Sections).
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
	"github.com/ariel-frischer/vistoria/internal/textnorm"
)

// Header identifies the inspection on the cover of every artifact.
type Header struct {
	InspectionID  string    `json:"inspection_id"`
	ClientName    string    `json:"client_name"`
	WorkSite      string    `json:"work_site"`
	Address       string    `json:"address,omitempty"`
	ExecutionDate string    `json:"execution_date"`
	Technician    string    `json:"technician,omitempty"`
	CabinType     string    `json:"cabin_type,omitempty"`
	CabinLabel    string    `json:"cabin_label,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Entry is one displayed field value.
type Entry struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Photo is an image attachment.
type Photo struct {
	ModuleID  string `json:"module_id"`
	PhotoType string `json:"photo_type"`
	Label     string `json:"label"`
	FileName  string `json:"file_name"`
	Path      string `json:"path"`
	MIME      string `json:"mime"`
}

// Module is the rendered content of one schema module.
type Module struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
	Photos  []Photo `json:"photos,omitempty"`
}

// Measurement is an instrument reading with its acceptable range, when declared.
type Measurement struct {
	ModuleID   string `json:"module_id"`
	Name       string `json:"name"`
	Label      string `json:"label"`
	Value      string `json:"value"`
	Unit       string `json:"unit,omitempty"`
	OutOfRange bool   `json:"out_of_range"`
}

// ChecklistResult joins an execution with its template item.
type ChecklistResult struct {
	ItemID        string                    `json:"item_id"`
	Action        string                    `json:"action"`
	Category      checklist.Category        `json:"category"`
	Criticality   checklist.Criticality     `json:"criticality"`
	Status        checklist.ExecutionStatus `json:"status"`
	ExpectedValue string                    `json:"expected_value,omitempty"`
	MeasuredValue *float64                  `json:"measured_value,omitempty"`
	Unit          string                    `json:"unit,omitempty"`
	Message       string                    `json:"message,omitempty"`
	Observation   string                    `json:"observation,omitempty"`
}

// Report is the canonical, mode-independent report of one inspection.
type Report struct {
	Header            Header                       `json:"header"`
	Modules           []Module                     `json:"modules"`
	Measurements      []Measurement                `json:"measurements"`
	Checklist         []ChecklistResult            `json:"checklist"`
	CorrectiveActions []checklist.CorrectiveAction `json:"corrective_actions"`
	WorkOrders        []checklist.WorkOrder        `json:"work_orders"`
	Photos            []Photo                      `json:"photos"`
}

// Input is everything Collect reads.
type Input struct {
	Inspection  store.Inspection
	Fields      []store.FieldRow
	Media       []store.MediaRow
	Executions  []checklist.Execution
	Actions     []checklist.CorrectiveAction
	WorkOrders  []checklist.WorkOrder
	GeneratedAt time.Time
}

// Collect assembles the report. Modules follow registry order and only modules with stored
// data appear; fields follow catalog order and hidden conditional fields are left out.
func Collect(reg *schema.Registry, templates *checklist.Templates, in Input) *Report {
	values := make(map[string]map[string]string)
	for _, r := range in.Fields {
		if values[r.ModuleType] == nil {
			values[r.ModuleType] = make(map[string]string)
		}
		values[r.ModuleType][r.FieldName] = r.FieldValue
	}

	rep := &Report{
		Header:            header(reg, in, values),
		Modules:           []Module{},
		Measurements:      []Measurement{},
		Checklist:         []ChecklistResult{},
		CorrectiveActions: in.Actions,
		WorkOrders:        in.WorkOrders,
		Photos:            []Photo{},
	}
	if rep.CorrectiveActions == nil {
		rep.CorrectiveActions = []checklist.CorrectiveAction{}
	}
	if rep.WorkOrders == nil {
		rep.WorkOrders = []checklist.WorkOrder{}
	}

	photosByModule := make(map[string][]Photo)
	for _, m := range in.Media {
		if !m.IsImage() {
			continue
		}
		p := Photo{
			ModuleID:  m.ModuleType,
			PhotoType: m.PhotoTypeOrGeneral(),
			Label:     photoLabel(reg, m),
			FileName:  m.FileName,
			Path:      m.FilePath,
			MIME:      m.FileType,
		}
		photosByModule[m.ModuleType] = append(photosByModule[m.ModuleType], p)
		rep.Photos = append(rep.Photos, p)
	}

	for _, m := range reg.Modules() {
		v := values[m.ID]
		if len(v) == 0 && len(photosByModule[m.ID]) == 0 {
			continue
		}
		mod := Module{ID: m.ID, Title: m.Title, Entries: []Entry{}, Photos: photosByModule[m.ID]}
		res := reg.ResolveModule(m.ID, v)
		for _, f := range res.VisibleFields {
			if !f.Visible(v) {
				continue
			}
			raw := strings.TrimSpace(v[f.Name])
			if raw == "" {
				continue
			}
			mod.Entries = append(mod.Entries, Entry{Name: f.Name, Label: f.Label, Value: display(f, raw, v), Unit: f.Unit})
			if f.Type == schema.FieldMeasurement || strings.HasPrefix(f.Name, schema.MeasurementPrefix) {
				rep.Measurements = append(rep.Measurements, measurement(m, f, raw))
			}
		}
		rep.Measurements = append(rep.Measurements, extraMeasurements(m, v)...)
		rep.Modules = append(rep.Modules, mod)
	}

	for _, e := range in.Executions {
		item, _ := templates.Item(rep.Header.CabinType, e.ItemID)
		cr := ChecklistResult{
			ItemID:        e.ItemID,
			Action:        item.Action,
			Category:      item.Category,
			Criticality:   item.Criticality,
			Status:        e.Status,
			ExpectedValue: item.ExpectedValue,
			MeasuredValue: e.MeasuredValue,
			Unit:          item.Unit,
			Observation:   e.Observation,
		}
		if cr.Action == "" {
			cr.Action = e.ItemID
		}
		if e.Validation != nil {
			cr.Message = e.Validation.Message
		}
		rep.Checklist = append(rep.Checklist, cr)
	}

	return rep
}

func header(reg *schema.Registry, in Input, values map[string]map[string]string) Header {
	client := values[schema.ModuleClient]
	h := Header{
		InspectionID:  in.Inspection.ID,
		ClientName:    firstNonBlank(client[schema.FieldClientName], in.Inspection.ClientName),
		WorkSite:      firstNonBlank(client[schema.FieldWorkSite], in.Inspection.WorkSite),
		Address:       client["address"],
		ExecutionDate: client[schema.FieldExecutionDate],
		Technician:    client["technician"],
		GeneratedAt:   in.GeneratedAt,
	}
	if ct, ok := reg.CabinType(values[schema.ModuleCabinType][schema.FieldCabinType]); ok {
		h.CabinType = ct.Type
		h.CabinLabel = ct.Label
	}
	return h
}

// display renders a stored value for humans: booleans as Sim/Não and "Outro" with its
// specification.
func display(f schema.FieldSpec, raw string, values map[string]string) string {
	switch {
	case f.Type == schema.FieldBoolean:
		if raw == schema.BoolTrue {
			return "Sim"
		}
		return "Não"
	case raw == schema.OtherOption && f.HasOtherOption():
		if spec := strings.TrimSpace(values[f.OtherKey()]); spec != "" {
			return schema.OtherOption + ": " + spec
		}
	}
	return raw
}

func measurement(m schema.ModuleConfig, f schema.FieldSpec, raw string) Measurement {
	ms := Measurement{ModuleID: m.ID, Name: f.Name, Label: f.Label, Value: raw, Unit: f.Unit}
	bounds := f.Validation
	if spec, ok := m.Measurement(f.Name); ok && bounds == nil {
		bounds = spec.Range
	}
	if v, ok := textnorm.ParseNumber(raw); ok && bounds != nil {
		ms.OutOfRange = !bounds.Contains(v)
	}
	return ms
}

// extraMeasurements picks up measurement_ fields stored without a field spec, in name order.
func extraMeasurements(m schema.ModuleConfig, values map[string]string) []Measurement {
	var names []string
	for k := range values {
		if !strings.HasPrefix(k, schema.MeasurementPrefix) {
			continue
		}
		if _, declared := m.Field(k); declared {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	var out []Measurement
	for _, k := range names {
		ms := Measurement{ModuleID: m.ID, Name: k, Label: k, Value: values[k]}
		if spec, ok := m.Measurement(k); ok {
			ms.Label, ms.Unit = spec.Label, spec.Unit
			if v, ok := textnorm.ParseNumber(values[k]); ok && spec.Range != nil {
				ms.OutOfRange = !spec.Range.Contains(v)
			}
		}
		out = append(out, ms)
	}
	return out
}

func photoLabel(reg *schema.Registry, m store.MediaRow) string {
	if mod, ok := reg.Module(m.ModuleType); ok {
		if p, ok := mod.Photo(m.PhotoType); ok {
			return p.Label
		}
	}
	for _, p := range reg.GlobalPhotos() {
		if p.Name == m.PhotoType {
			return p.Label
		}
	}
	return m.FileName
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
