package checklist

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/templates.yaml
var templatesYAML []byte

// Template is the item list of one canonical cabin type.
type Template struct {
	CabinType string `yaml:"cabin_type" validate:"required"`
	Items     []Item `yaml:"items" validate:"required,dive"`
}

type templatesFile struct {
	Templates []Template `yaml:"templates" validate:"required,dive"`
}

// Templates indexes templates by cabin type and items by id.
type Templates struct {
	byType map[string]*Template
	order  []string
}

var (
	defaultTemplatesOnce sync.Once
	defaultTemplates     *Templates
)

// DefaultTemplates returns the embedded checklist templates.
func DefaultTemplates() *Templates {
	defaultTemplatesOnce.Do(func() {
		t, err := LoadTemplates(templatesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded checklist templates are invalid: %v", err))
		}
		defaultTemplates = t
	})
	return defaultTemplates
}

// LoadTemplates decodes and validates checklist templates.
func LoadTemplates(data []byte) (*Templates, error) {
	var tf templatesFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing checklist templates: %w", err)
	}
	if err := validator.New().Struct(tf); err != nil {
		return nil, fmt.Errorf("checklist templates validation failed: %w", err)
	}

	ts := &Templates{byType: make(map[string]*Template, len(tf.Templates))}
	seen := make(map[string]string)
	for i := range tf.Templates {
		tpl := &tf.Templates[i]
		if _, dup := ts.byType[tpl.CabinType]; dup {
			return nil, fmt.Errorf("duplicate template for cabin type %s", tpl.CabinType)
		}
		for _, it := range tpl.Items {
			if owner, dup := seen[it.ID]; dup {
				return nil, fmt.Errorf("item %q defined in both %s and %s", it.ID, owner, tpl.CabinType)
			}
			seen[it.ID] = tpl.CabinType
		}
		ts.byType[tpl.CabinType] = tpl
		ts.order = append(ts.order, tpl.CabinType)
	}
	return ts, nil
}

// ForCabinType returns the template of a canonical cabin type.
func (ts *Templates) ForCabinType(cabinType string) (*Template, bool) {
	t, ok := ts.byType[cabinType]
	return t, ok
}

// CabinTypes returns the cabin types that have templates, in file order.
func (ts *Templates) CabinTypes() []string {
	return ts.order
}

// Item finds an item by id, preferring the given cabin type's template and falling back to
// every template.
func (ts *Templates) Item(cabinType, itemID string) (Item, bool) {
	if t, ok := ts.byType[cabinType]; ok {
		for _, it := range t.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	for _, ct := range ts.order {
		for _, it := range ts.byType[ct].Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return Item{}, false
}
