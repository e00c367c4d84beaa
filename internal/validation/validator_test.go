// Package validation tests the final report validator: critical gates, Other specification,
// photo requirements, conditional visibility and the fail-closed contract.
// Related: internal/validation/validator.go
// Tags: validation, final-report, critical, photos

package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/vistoria/internal/log"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
	"github.com/ariel-frischer/vistoria/internal/testutil"
)

type fakeSource struct {
	fields   []store.FieldRow
	media    []store.MediaRow
	fieldErr error
	mediaErr error
	panicMsg string
}

func (f *fakeSource) FieldRows(context.Context, string) ([]store.FieldRow, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.fields, f.fieldErr
}

func (f *fakeSource) MediaRows(context.Context, string) ([]store.MediaRow, error) {
	return f.media, f.mediaErr
}

func validate(values map[string]map[string]string, media []store.MediaRow) Result {
	src := &fakeSource{fields: testutil.Rows("insp-1", values), media: media}
	return New(schema.Default(), src, log.Discard()).ValidateFinalReport(context.Background(), "insp-1")
}

func TestValidateFinalReport_Complete(t *testing.T) {
	t.Parallel()
	r := validate(testutil.CompleteValues(), testutil.CompleteMedia("insp-1"))

	assert.True(t, r.IsValid)
	assert.Equal(t, []string{}, r.MissingFields)
	assert.Equal(t, []string{}, r.ErrorsSample)
	assert.Equal(t, []string{}, r.CriticalErrors)
	assert.False(t, r.HasCritical())
}

func TestValidateFinalReport_MissingClientName(t *testing.T) {
	t.Parallel()
	values := testutil.Set(testutil.CompleteValues(), "client", "client_name", "")
	r := validate(values, testutil.CompleteMedia("insp-1"))

	assert.False(t, r.IsValid)
	assert.Equal(t, []string{"Nome do Cliente (Cliente/Obra)"}, r.MissingFields)
	assert.Equal(t, []string{`O campo "Nome do Cliente" do módulo "Cliente/Obra" é obrigatório.`}, r.ErrorsSample)
	assert.Empty(t, r.CriticalErrors)
}

func TestValidateFinalReport_BlankValueIsMissing(t *testing.T) {
	t.Parallel()
	values := testutil.Set(testutil.CompleteValues(), "grid", "grounding_condition", "   ")
	r := validate(values, testutil.CompleteMedia("insp-1"))

	require.Len(t, r.MissingFields, 1)
	assert.Contains(t, r.MissingFields[0], "Estado da Malha")
}

func TestValidateFinalReport_MissingFacadePhoto(t *testing.T) {
	t.Parallel()
	r := validate(testutil.CompleteValues(), testutil.Without(testutil.CompleteMedia("insp-1"), "facade"))

	assert.False(t, r.IsValid)
	// the module photo and the global photo are reported separately
	assert.Equal(t, []string{"Foto: Fachada (Cliente/Obra)", "Foto obrigatória: Fachada"}, r.MissingFields)
	assert.Equal(t, []string{
		`A foto "Fachada" do módulo "Cliente/Obra" é obrigatória.`,
		`A foto obrigatória "Fachada" não foi anexada.`,
	}, r.ErrorsSample)
	assert.Empty(t, r.CriticalErrors)
}

func TestValidateFinalReport_AuthorizationIsCritical(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value string
	}{
		"false":   {value: "false"},
		"absent":  {value: ""},
		"garbage": {value: "sim"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			values := testutil.Set(testutil.CompleteValues(), "client", "authorization", tt.value)
			r := validate(values, testutil.CompleteMedia("insp-1"))

			assert.False(t, r.IsValid)
			require.Len(t, r.CriticalErrors, 1)
			assert.Contains(t, r.CriticalErrors[0], "Autorização do Cliente")
			assert.Equal(t, []string{"Autorização do Cliente (Cliente/Obra)"}, r.MissingFields)
		})
	}
}

func TestValidateFinalReport_OtherBooleansNotChecked(t *testing.T) {
	t.Parallel()
	values := testutil.Set(testutil.CompleteValues(), "procedures", "lockout_tagout", "")
	values = testutil.Set(values, "reconnection", "reconnection_ok", "false")
	r := validate(values, testutil.CompleteMedia("insp-1"))

	assert.True(t, r.IsValid)
}

func TestValidateFinalReport_ConclusionIsCritical(t *testing.T) {
	t.Parallel()
	values := testutil.Set(testutil.CompleteValues(), "general", "conclusion", "")
	r := validate(values, testutil.CompleteMedia("insp-1"))

	want := `O campo "Conclusão" do módulo "Estado Geral e Conclusão" é obrigatório.`
	assert.Equal(t, []string{"Conclusão (Estado Geral e Conclusão)"}, r.MissingFields)
	assert.Equal(t, []string{want}, r.CriticalErrors)
	assert.Equal(t, []string{want}, r.ErrorsSample)
}

func TestValidateFinalReport_OtherSpecification(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		module      string
		field       string
		otherValue  string
		wantMissing int
	}{
		"other without specification": {module: "general", field: "general_condition", wantMissing: 1},
		"other with blank specification": {
			module: "maintenance", field: "maintenance_type", otherValue: "  ", wantMissing: 1,
		},
		"other with specification": {
			module: "procedures", field: "ppe_used", otherValue: "Protetor facial", wantMissing: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			values := testutil.Set(testutil.CompleteValues(), tt.module, tt.field, schema.OtherOption)
			if tt.otherValue != "" {
				values = testutil.Set(values, tt.module, tt.field+schema.OtherSuffix, tt.otherValue)
			}
			r := validate(values, testutil.CompleteMedia("insp-1"))

			require.Len(t, r.MissingFields, tt.wantMissing)
			if tt.wantMissing > 0 {
				assert.Contains(t, r.MissingFields[0], "especificação")
				assert.Contains(t, r.ErrorsSample[0], "Outro")
				assert.Empty(t, r.CriticalErrors)
			}
		})
	}
}

func TestValidateFinalReport_MissingModule(t *testing.T) {
	t.Parallel()
	values := testutil.CompleteValues()
	delete(values, "epcs")
	r := validate(values, testutil.CompleteMedia("insp-1"))

	assert.Equal(t, []string{"EPCs (módulo não preenchido)"}, r.MissingFields)
	assert.Equal(t, []string{`O módulo "EPCs" não foi preenchido.`}, r.ErrorsSample)
}

func TestValidateFinalReport_EmptyInspection(t *testing.T) {
	t.Parallel()
	r := validate(map[string]map[string]string{}, nil)

	// one entry per required module, then the four global photos
	assert.Len(t, r.MissingFields, len(schema.Default().RequiredModules())+4)
	assert.Empty(t, r.CriticalErrors, "absent modules are not checked field by field")
}

func TestValidateFinalReport_ConditionalFields(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		values      map[string]map[string]string
		wantMissing []string
	}{
		"de-energization not performed hides its time": {
			values: testutil.Set(testutil.Set(testutil.CompleteValues(),
				"procedures", "de_energization", "Não"), "procedures", "de_energization_time", ""),
		},
		"de-energization performed requires its time": {
			values:      testutil.Set(testutil.CompleteValues(), "procedures", "de_energization_time", ""),
			wantMissing: []string{"Horário do Desligamento (Procedimentos)"},
		},
		"dry transformer hides oil level": {
			values: testutil.Set(testutil.Set(testutil.CompleteValues(),
				"transformers", "insulation_type", "Seco"), "transformers", "oil_level", ""),
		},
		"simplified cabin requires pole condition": {
			values: testutil.Set(testutil.Set(testutil.CompleteValues(),
				"cabin_type", "cabin_type", "Poste"), "cabin_type", "masonry_condition", ""),
			wantMissing: []string{"Estado do Poste (Tipo de Cabine)"},
		},
		"conventional cabin requires masonry condition": {
			values:      testutil.Set(testutil.CompleteValues(), "cabin_type", "masonry_condition", ""),
			wantMissing: []string{"Estado da Alvenaria (Tipo de Cabine)"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := validate(tt.values, testutil.CompleteMedia("insp-1"))
			if len(tt.wantMissing) == 0 {
				assert.Empty(t, r.MissingFields)
				return
			}
			assert.Equal(t, tt.wantMissing, r.MissingFields)
		})
	}
}

func TestValidateFinalReport_PhotoMatching(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate      func([]store.MediaRow) []store.MediaRow
		wantMissing int
	}{
		"all photos": {
			mutate: func(m []store.MediaRow) []store.MediaRow { return m },
		},
		"photo matched by file name in its module": {
			mutate: func(m []store.MediaRow) []store.MediaRow {
				// untagged main panel photo still satisfies the bt module but not the global type
				out := testutil.Without(m, "main_panel")
				return append(out, store.MediaRow{ModuleType: "bt", FileName: "main_panel_01.jpg", FileType: "image/jpeg"})
			},
			wantMissing: 1,
		},
		"non-image files ignored": {
			mutate: func(m []store.MediaRow) []store.MediaRow {
				out := testutil.Without(m, "nameplate")
				return append(out, store.MediaRow{ModuleType: "transformers", FileName: "nameplate.pdf",
					FileType: "application/pdf", PhotoType: "nameplate"})
			},
			wantMissing: 2,
		},
		"photo in the wrong module": {
			mutate: func(m []store.MediaRow) []store.MediaRow {
				out := testutil.Without(m, "facade")
				return append(out, store.MediaRow{ModuleType: "general", FileName: "f.jpg",
					FileType: "image/jpeg", PhotoType: "facade"})
			},
			wantMissing: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := validate(testutil.CompleteValues(), tt.mutate(testutil.CompleteMedia("insp-1")))
			assert.Len(t, r.MissingFields, tt.wantMissing)
		})
	}
}

func TestValidateFinalReport_IgnoresUnknownData(t *testing.T) {
	t.Parallel()
	values := testutil.CompleteValues()
	values["legacy_module"] = map[string]string{"x": "y"}
	values["client"]["unknown_field"] = "z"
	r := validate(values, testutil.CompleteMedia("insp-1"))

	assert.True(t, r.IsValid)
}

func TestValidateFinalReport_Deterministic(t *testing.T) {
	t.Parallel()
	values := testutil.Set(testutil.CompleteValues(), "general", "conclusion", "")
	values = testutil.Set(values, "client", "authorization", "false")
	values = testutil.Set(values, "maintenance", "maintenance_type", "Outro")
	media := testutil.Without(testutil.CompleteMedia("insp-1"), "nameplate")

	first := validate(values, media)
	second := validate(values, media)
	assert.Equal(t, first, second)
	assert.Len(t, first.CriticalErrors, 2)
	// authorization (client) is discovered before conclusion (general)
	assert.Contains(t, first.CriticalErrors[0], "Autorização")
}

func TestValidateFinalReport_FailClosed(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src *fakeSource
	}{
		"field read fails": {src: &fakeSource{fieldErr: errors.New("connection refused")}},
		"media read fails": {src: &fakeSource{mediaErr: errors.New("timeout")}},
		"panic":            {src: &fakeSource{panicMsg: "boom"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := New(schema.Default(), tt.src, log.Discard()).ValidateFinalReport(context.Background(), "x")

			assert.False(t, r.IsValid)
			assert.Equal(t, []string{FailClosedMissingField}, r.MissingFields)
			assert.Equal(t, []string{FailClosedCritical}, r.CriticalErrors)
			assert.True(t, r.HasCritical())
		})
	}
}

func TestValidateMany(t *testing.T) {
	t.Parallel()
	s := testutil.OpenStore(t)
	complete := testutil.Seed(t, s, testutil.CompleteValues(), testutil.CompleteMedia(""))
	incomplete := testutil.Seed(t, s, testutil.Set(testutil.CompleteValues(), "client", "authorization", "false"), nil)

	results, err := New(schema.Default(), s, log.Discard()).
		ValidateMany(context.Background(), []string{complete, incomplete}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[complete].IsValid)
	assert.True(t, results[incomplete].HasCritical())
}

func TestValidateMany_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(schema.Default(), &fakeSource{}, log.Discard()).ValidateMany(ctx, []string{"a"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Summary(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		result Result
		want   string
	}{
		"valid": {
			result: fold(nil),
			want:   "Vistoria completa: pronta para gerar o relatório.",
		},
		"incomplete": {
			result: fold([]Diagnostic{{Severity: SeverityInfo, MissingField: "a", Sentence: "a"}}),
			want:   "Vistoria incompleta: 1 pendência(s).",
		},
		"critical": {
			result: fold([]Diagnostic{
				{Severity: SeverityInfo, MissingField: "a", Sentence: "a"},
				{Severity: SeverityCritical, MissingField: "b", Sentence: "b"},
			}),
			want: "Vistoria incompleta: 2 pendência(s), 1 crítica(s).",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.Summary())
		})
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()
	reg := schema.Default()
	required := len(reg.RequiredModules())

	assert.Equal(t, 0, Progress(reg, nil))
	assert.Equal(t, 100, Progress(reg, testutil.Rows("i", testutil.CompleteValues())))

	partial := testutil.Set(testutil.CompleteValues(), "client", "client_name", "")
	assert.Equal(t, (required-1)*100/required, Progress(reg, testutil.Rows("i", partial)))
}
