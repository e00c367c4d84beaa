// Package schema tests conditional resolution of the cabin_type module.
// Related: internal/schema/resolve.go
// Tags: schema, resolver, conditional-fields
package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(fs []FieldSpec) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}

func photoNames(ps []PhotoSpec) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestResolve_IdentityForOtherModules(t *testing.T) {
	t.Parallel()

	reg := Default()
	m, ok := reg.Module("transformers")
	require.True(t, ok)

	res := reg.ResolveModule("transformers", map[string]string{"cabin_type": "CONVENCIONAL"})

	assert.Equal(t, fieldNames(m.Fields), fieldNames(res.VisibleFields))
	assert.Equal(t, photoNames(m.Photos), photoNames(res.VisiblePhotos))
	assert.Equal(t, []string{
		"transformer_count", "transformer_power", "manufacturer", "insulation_type", "oil_level",
	}, res.RequiredFieldNames)
	assert.Nil(t, res.CabinType)
}

func TestResolve_CabinTypeNotSelected(t *testing.T) {
	t.Parallel()

	res := Default().ResolveModule(ModuleCabinType, map[string]string{})

	assert.Equal(t, []string{"cabin_type", "supply_voltage", "installed_power", "protection_type"},
		fieldNames(res.VisibleFields))
	assert.Equal(t, []string{
		"cabin_exterior", "cabin_interior", "cabin_nameplate", "grounding",
		"facade", "transformer_proximity", "nameplate", "main_panel",
	}, photoNames(res.VisiblePhotos))
	assert.Equal(t, []string{"cabin_type", "supply_voltage", "installed_power", "protection_type"},
		res.RequiredFieldNames)
	assert.Nil(t, res.CabinType)
}

func TestResolve_CabinTypeVariants(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value        string
		wantType     string
		wantFields   []string
		wantPhotos   []string
		wantRequired []string
	}{
		"convencional": {
			value:        "CONVENCIONAL",
			wantType:     "CONVENCIONAL",
			wantFields:   []string{"masonry_condition", "ventilation", "door_lock"},
			wantPhotos:   []string{"masonry", "ventilation_openings"},
			wantRequired: []string{"masonry_condition"},
		},
		"legacy alias normalizes": {
			value:        "Alvenaria",
			wantType:     "CONVENCIONAL",
			wantFields:   []string{"masonry_condition", "ventilation", "door_lock"},
			wantPhotos:   []string{"masonry", "ventilation_openings"},
			wantRequired: []string{"masonry_condition"},
		},
		"simplificada": {
			value:        "SIMPLIFICADA",
			wantType:     "SIMPLIFICADA",
			wantFields:   []string{"pole_condition", "fuse_switch_type"},
			wantPhotos:   []string{"pole"},
			wantRequired: []string{"pole_condition"},
		},
		"estaleiro": {
			value:        "Estaleiro",
			wantType:     "ESTALEIRO",
			wantFields:   []string{"frame_condition", "enclosure_ip"},
			wantPhotos:   []string{"metal_frame"},
			wantRequired: []string{"frame_condition"},
		},
	}

	base := []string{"cabin_type", "supply_voltage", "installed_power", "protection_type"}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res := Default().ResolveModule(ModuleCabinType, map[string]string{"cabin_type": tc.value})

			require.NotNil(t, res.CabinType)
			assert.Equal(t, tc.wantType, res.CabinType.Type)
			assert.Equal(t, append(append([]string{}, base...), tc.wantFields...), fieldNames(res.VisibleFields))
			assert.Equal(t, append(append([]string{}, base...), tc.wantRequired...), res.RequiredFieldNames)
			for _, p := range tc.wantPhotos {
				assert.Contains(t, photoNames(res.VisiblePhotos), p)
			}
			assert.True(t, res.IsVisibleField(tc.wantFields[0]))
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	reg := Default()
	values := map[string]string{"cabin_type": "Poste"}

	first := reg.ResolveModule(ModuleCabinType, values)
	second := reg.ResolveModule(ModuleCabinType, values)
	assert.Equal(t, first, second)

	// Changing the governing value changes the result; nothing is cached.
	values["cabin_type"] = "ESTALEIRO"
	third := reg.ResolveModule(ModuleCabinType, values)
	assert.NotEqual(t, fieldNames(first.VisibleFields), fieldNames(third.VisibleFields))
}

func TestResolve_UnknownModule(t *testing.T) {
	t.Parallel()
	res := Default().ResolveModule("ghost", nil)
	assert.Empty(t, res.VisibleFields)
	assert.Empty(t, res.RequiredFieldNames)
}
