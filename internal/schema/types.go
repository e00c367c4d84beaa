// Package schema holds the declarative description of every inspection module: fields, photos,
// measurements and the cabin-type variants that expand the cabin_type module.
//
// The registry is data, loaded from embedded YAML. Consumers (validator, resolver, report
// assembler) walk it generically; adding a module or a field never touches their logic.
package schema

import "strings"

// Module ids referenced by rules outside the registry data.
const (
	ModuleClient    = "client"
	ModuleCabinType = "cabin_type"
	ModuleGeneral   = "general"
)

// Field names with special validation or export semantics.
const (
	FieldCabinType     = "cabin_type"
	FieldAuthorization = "authorization"
	FieldConclusion    = "conclusion"
	FieldClientName    = "client_name"
	FieldWorkSite      = "work_site"
	FieldExecutionDate = "execution_date"

	// OtherSuffix is appended to a select field name to hold the free text of an "Outro" choice.
	OtherSuffix = "_other"
	// MeasurementPrefix marks fields carrying instrument readings.
	MeasurementPrefix = "measurement_"
)

// OtherOption is the sentinel option that requires a companion "<name>_other" value.
const OtherOption = "Outro"

// Boolean fields are stored as these literal strings.
const (
	BoolTrue  = "true"
	BoolFalse = "false"
)

// FieldType is the input kind of a module field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldBoolean     FieldType = "boolean"
	FieldSelect      FieldType = "select"
	FieldMeasurement FieldType = "measurement"
	FieldPhoto       FieldType = "photo"
	FieldDate        FieldType = "date"
	FieldTime        FieldType = "time"
	FieldTextarea    FieldType = "textarea"
)

// String returns the string representation of the field type.
func (t FieldType) String() string {
	return string(t)
}

// IsValid returns true if the type is a recognized value.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldText, FieldNumber, FieldBoolean, FieldSelect, FieldMeasurement,
		FieldPhoto, FieldDate, FieldTime, FieldTextarea:
		return true
	}
	return false
}

// MeasurementType classifies a numeric reading.
type MeasurementType string

const (
	MeasurementVoltage     MeasurementType = "voltage"
	MeasurementCurrent     MeasurementType = "current"
	MeasurementTemperature MeasurementType = "temperature"
	MeasurementResistance  MeasurementType = "resistance"
	MeasurementFrequency   MeasurementType = "frequency"
	MeasurementPower       MeasurementType = "power"
	MeasurementOther       MeasurementType = "other"
)

// Bounds is an optional numeric range; nil ends are open.
type Bounds struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Contains reports whether v lies inside the bounds.
func (b *Bounds) Contains(v float64) bool {
	if b == nil {
		return true
	}
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// ConditionalOn shows a field only when another field of the same module holds Value.
type ConditionalOn struct {
	Field string `yaml:"field" validate:"required"`
	Value string `yaml:"value" validate:"required"`
}

// Matches reports whether the governing field currently holds the required value.
func (c *ConditionalOn) Matches(values map[string]string) bool {
	if c == nil {
		return true
	}
	return strings.TrimSpace(values[c.Field]) == c.Value
}

// FieldSpec declares one input slot within a module.
type FieldSpec struct {
	Name          string         `yaml:"name" validate:"required"`
	Label         string         `yaml:"label" validate:"required"`
	Type          FieldType      `yaml:"type" validate:"required,oneof=text number boolean select measurement photo date time textarea"`
	Required      bool           `yaml:"required"`
	Options       []string       `yaml:"options,omitempty" validate:"required_if=Type select"`
	Unit          string         `yaml:"unit,omitempty"`
	Validation    *Bounds        `yaml:"validation,omitempty"`
	ConditionalOn *ConditionalOn `yaml:"conditional_on,omitempty"`
}

// HasOtherOption reports whether the field offers the "Outro" sentinel.
func (f FieldSpec) HasOtherOption() bool {
	if f.Type != FieldSelect {
		return false
	}
	for _, o := range f.Options {
		if o == OtherOption {
			return true
		}
	}
	return false
}

// OtherKey is the companion field holding the free text for an "Outro" choice.
func (f FieldSpec) OtherKey() string {
	return f.Name + OtherSuffix
}

// Visible reports whether the field is shown for the given module values.
func (f FieldSpec) Visible(values map[string]string) bool {
	return f.ConditionalOn.Matches(values)
}

// PhotoSpec declares a photographic evidence slot.
type PhotoSpec struct {
	Name      string `yaml:"name" validate:"required"`
	Label     string `yaml:"label" validate:"required"`
	Required  bool   `yaml:"required"`
	MaxPhotos int    `yaml:"max_photos,omitempty" validate:"min=0"`
}

// MeasurementSpec declares a numeric reading.
type MeasurementSpec struct {
	Name  string          `yaml:"name" validate:"required"`
	Label string          `yaml:"label" validate:"required"`
	Unit  string          `yaml:"unit,omitempty"`
	Type  MeasurementType `yaml:"type" validate:"required,oneof=voltage current temperature resistance frequency power other"`
	Range *Bounds         `yaml:"range,omitempty"`
}

// ModuleConfig is one inspection module.
type ModuleConfig struct {
	ID           string            `yaml:"id" validate:"required"`
	Title        string            `yaml:"title" validate:"required"`
	Order        int               `yaml:"order" validate:"min=1"`
	Required     bool              `yaml:"required"`
	Fields       []FieldSpec       `yaml:"fields,omitempty" validate:"dive"`
	Photos       []PhotoSpec       `yaml:"photos,omitempty" validate:"dive"`
	Measurements []MeasurementSpec `yaml:"measurements,omitempty" validate:"dive"`
}

// Field returns the field spec with the given name.
func (m *ModuleConfig) Field(name string) (FieldSpec, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Photo returns the photo spec with the given name.
func (m *ModuleConfig) Photo(name string) (PhotoSpec, bool) {
	for _, p := range m.Photos {
		if p.Name == name {
			return p, true
		}
	}
	return PhotoSpec{}, false
}

// Measurement returns the measurement spec with the given name.
func (m *ModuleConfig) Measurement(name string) (MeasurementSpec, bool) {
	for _, ms := range m.Measurements {
		if ms.Name == name {
			return ms, true
		}
	}
	return MeasurementSpec{}, false
}

// ConditionalItems names catalog entries added by a cabin type.
type ConditionalItems struct {
	Fields []string `yaml:"fields"`
	Photos []string `yaml:"photos"`
}

// CabinTypeConfig is a cabin-type variant keyed by its canonical type string.
type CabinTypeConfig struct {
	Type             string           `yaml:"type" validate:"required"`
	Label            string           `yaml:"label" validate:"required"`
	Aliases          []string         `yaml:"aliases,omitempty"`
	ConditionalItems ConditionalItems `yaml:"conditional_items"`
}
