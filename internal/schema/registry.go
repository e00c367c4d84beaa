package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ariel-frischer/vistoria/internal/textnorm"
	"github.com/go-playground/validator/v10"
	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

//go:embed data/modules.yaml
var modulesYAML []byte

//go:embed data/cabin_types.yaml
var cabinTypesYAML []byte

// modulesFile is the on-disk shape of modules.yaml.
type modulesFile struct {
	GlobalPhotos []PhotoSpec    `yaml:"global_photos" validate:"required,dive"`
	Modules      []ModuleConfig `yaml:"modules" validate:"required,dive"`
}

// cabinTypesFile is the on-disk shape of cabin_types.yaml.
type cabinTypesFile struct {
	Base       ConditionalItems  `yaml:"base"`
	CabinTypes []CabinTypeConfig `yaml:"cabin_types" validate:"dive"`
}

// Registry is the read-only, ordered collection of module configs and cabin-type variants.
// It is safe for concurrent use; nothing mutates it after Load.
type Registry struct {
	modules      []ModuleConfig
	byID         map[string]int
	globalPhotos []PhotoSpec
	base         ConditionalItems
	cabinTypes   []CabinTypeConfig
	aliases      map[string]int // folded type or alias -> index in cabinTypes
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded schema data.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(modulesYAML, cabinTypesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded schema is invalid: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Load decodes and checks module and cabin-type definitions.
func Load(modulesData, cabinTypesData []byte) (*Registry, error) {
	var mf modulesFile
	if err := yaml.Unmarshal(modulesData, &mf); err != nil {
		return nil, fmt.Errorf("parsing modules: %w", err)
	}
	var cf cabinTypesFile
	if err := yaml.Unmarshal(cabinTypesData, &cf); err != nil {
		return nil, fmt.Errorf("parsing cabin types: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mf); err != nil {
		return nil, fmt.Errorf("modules validation failed: %w", err)
	}
	if err := validate.Struct(cf); err != nil {
		return nil, fmt.Errorf("cabin types validation failed: %w", err)
	}

	r := &Registry{
		modules:      mf.Modules,
		byID:         make(map[string]int, len(mf.Modules)),
		globalPhotos: mf.GlobalPhotos,
		base:         cf.Base,
		cabinTypes:   cf.CabinTypes,
		aliases:      make(map[string]int),
	}

	sort.SliceStable(r.modules, func(i, j int) bool {
		return r.modules[i].Order < r.modules[j].Order
	})

	for i, m := range r.modules {
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		r.byID[m.ID] = i
		if err := checkModule(m); err != nil {
			return nil, err
		}
	}

	if err := r.checkCabinTypes(); err != nil {
		return nil, err
	}

	return r, nil
}

// checkModule verifies names are unique and conditional predicates reference real fields.
func checkModule(m ModuleConfig) error {
	fields := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if fields[f.Name] {
			return fmt.Errorf("module %q: duplicate field %q", m.ID, f.Name)
		}
		fields[f.Name] = true
	}
	for _, f := range m.Fields {
		if f.ConditionalOn != nil && !fields[f.ConditionalOn.Field] {
			return fmt.Errorf("module %q: field %q is conditional on unknown field %q",
				m.ID, f.Name, f.ConditionalOn.Field)
		}
	}
	photos := make(map[string]bool, len(m.Photos))
	for _, p := range m.Photos {
		if photos[p.Name] {
			return fmt.Errorf("module %q: duplicate photo %q", m.ID, p.Name)
		}
		photos[p.Name] = true
	}
	return nil
}

// checkCabinTypes verifies every base and conditional item exists in the cabin_type catalog
// and builds the alias table.
func (r *Registry) checkCabinTypes() error {
	if len(r.cabinTypes) == 0 {
		return nil
	}
	cabin, ok := r.Module(ModuleCabinType)
	if !ok {
		return fmt.Errorf("cabin types defined but module %q is missing", ModuleCabinType)
	}

	check := func(owner string, items ConditionalItems) error {
		for _, name := range items.Fields {
			if _, ok := cabin.Field(name); !ok {
				return fmt.Errorf("%s: unknown %s field %q", owner, ModuleCabinType, name)
			}
		}
		for _, name := range items.Photos {
			if _, ok := cabin.Photo(name); !ok {
				return fmt.Errorf("%s: unknown %s photo %q", owner, ModuleCabinType, name)
			}
		}
		return nil
	}

	if err := check("base", r.base); err != nil {
		return err
	}
	for i, ct := range r.cabinTypes {
		if err := check("cabin type "+ct.Type, ct.ConditionalItems); err != nil {
			return err
		}
		keys := append([]string{ct.Type}, ct.Aliases...)
		for _, k := range keys {
			folded := textnorm.Fold(k)
			if prev, dup := r.aliases[folded]; dup && prev != i {
				return fmt.Errorf("cabin type alias %q maps to both %s and %s",
					k, r.cabinTypes[prev].Type, ct.Type)
			}
			r.aliases[folded] = i
		}
	}
	return nil
}

// Modules returns all modules in report order. The slice must not be modified.
func (r *Registry) Modules() []ModuleConfig {
	return r.modules
}

// Module returns the module with the given id.
func (r *Registry) Module(id string) (*ModuleConfig, bool) {
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return &r.modules[i], true
}

// RequiredModules returns the modules flagged required, in report order.
func (r *Registry) RequiredModules() []ModuleConfig {
	var out []ModuleConfig
	for _, m := range r.modules {
		if m.Required {
			out = append(out, m)
		}
	}
	return out
}

// ModuleTitle returns the display title of a module id, or the id itself when unknown.
func (r *Registry) ModuleTitle(id string) string {
	if m, ok := r.Module(id); ok {
		return m.Title
	}
	return id
}

// GlobalPhotos returns the photo types mandatory for every report regardless of module.
func (r *Registry) GlobalPhotos() []PhotoSpec {
	return r.globalPhotos
}

// CabinTypes returns all cabin-type variants.
func (r *Registry) CabinTypes() []CabinTypeConfig {
	return r.cabinTypes
}

// NormalizeCabinType maps a stored value or legacy alias to its canonical type
// ("Alvenaria" -> "CONVENCIONAL"). Matching ignores case and accents.
func (r *Registry) NormalizeCabinType(value string) (string, bool) {
	ct, ok := r.CabinType(value)
	if !ok {
		return "", false
	}
	return ct.Type, true
}

// CabinType returns the variant for a stored value, following aliases.
func (r *Registry) CabinType(value string) (*CabinTypeConfig, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, false
	}
	i, ok := r.aliases[textnorm.Fold(value)]
	if !ok {
		return nil, false
	}
	return &r.cabinTypes[i], true
}

// Suggest returns module ids resembling an unknown id, best match first.
func (r *Registry) Suggest(id string) []string {
	ids := make([]string, len(r.modules))
	for i, m := range r.modules {
		ids[i] = m.ID
	}
	matches := fuzzy.Find(id, ids)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}
