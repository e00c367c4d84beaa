package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
)

// Source reads the stored rows of an inspection. store.Store implements it.
type Source interface {
	FieldRows(ctx context.Context, inspectionID string) ([]store.FieldRow, error)
	MediaRows(ctx context.Context, inspectionID string) ([]store.MediaRow, error)
}

// Validator checks inspections against the schema registry. It never writes.
type Validator struct {
	registry *schema.Registry
	source   Source
	logger   *slog.Logger
}

// New creates a Validator.
func New(registry *schema.Registry, source Source, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{registry: registry, source: source, logger: logger}
}

// ValidateFinalReport validates the stored data of one inspection.
//
// It always returns a Result. Read failures and panics inside the pass fail closed with a
// single critical system diagnostic.
func (v *Validator) ValidateFinalReport(ctx context.Context, inspectionID string) (result Result) {
	logger := v.logger.With("inspection_id", inspectionID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("validation panicked", "panic", fmt.Sprint(r))
			result = failClosed()
		}
	}()

	fields, err := v.source.FieldRows(ctx, inspectionID)
	if err != nil {
		logger.Error("reading module data for validation", "error", err)
		return failClosed()
	}
	media, err := v.source.MediaRows(ctx, inspectionID)
	if err != nil {
		logger.Error("reading media for validation", "error", err)
		return failClosed()
	}

	result = fold(v.discover(buildIndex(fields, media)))
	logger.Debug("inspection validated",
		"valid", result.IsValid, "missing", len(result.MissingFields), "critical", len(result.CriticalErrors))
	return result
}

// Validate runs the discovery pass over rows already in memory.
func (v *Validator) Validate(fields []store.FieldRow, media []store.MediaRow) Result {
	return fold(v.discover(buildIndex(fields, media)))
}

// discover is the single pass: required modules in registry order, fields before photos,
// then the global photo types.
func (v *Validator) discover(ix *index) []Diagnostic {
	var diags []Diagnostic
	for _, m := range v.registry.RequiredModules() {
		values, ok := ix.modules[m.ID]
		if !ok || len(values) == 0 {
			missing, sentence := moduleMissing(m.Title)
			diags = append(diags, Diagnostic{
				Severity: SeverityInfo, Kind: KindModule, ModuleID: m.ID,
				MissingField: missing, Sentence: sentence,
			})
			continue
		}
		res := v.registry.ResolveModule(m.ID, values)
		diags = append(diags, checkFields(m, res, values)...)
		diags = append(diags, checkPhotos(m, res, ix)...)
	}

	for _, p := range v.registry.GlobalPhotos() {
		if ix.hasPhotoType(p.Name) {
			continue
		}
		missing, sentence := globalPhotoMissing(p.Label)
		diags = append(diags, Diagnostic{
			Severity: SeverityInfo, Kind: KindGlobalPhoto, Name: p.Name,
			MissingField: missing, Sentence: sentence,
		})
	}
	return diags
}

func checkFields(m schema.ModuleConfig, res schema.Resolution, values map[string]string) []Diagnostic {
	var diags []Diagnostic
	for _, f := range res.VisibleFields {
		if !f.Required || !f.Visible(values) {
			continue
		}
		value := strings.TrimSpace(values[f.Name])

		if f.Type == schema.FieldBoolean {
			if f.Name == schema.FieldAuthorization && value != schema.BoolTrue {
				missing, sentence := authorizationMissing(f.Label, m.Title)
				diags = append(diags, Diagnostic{
					Severity: SeverityCritical, Kind: KindField, ModuleID: m.ID, Name: f.Name,
					MissingField: missing, Sentence: sentence,
				})
			}
			continue
		}

		if value == "" {
			severity := SeverityInfo
			if f.Name == schema.FieldConclusion && m.ID == schema.ModuleGeneral {
				severity = SeverityCritical
			}
			missing, sentence := fieldMissing(f.Label, m.Title)
			diags = append(diags, Diagnostic{
				Severity: severity, Kind: KindField, ModuleID: m.ID, Name: f.Name,
				MissingField: missing, Sentence: sentence,
			})
			continue
		}

		if value == schema.OtherOption && f.HasOtherOption() && strings.TrimSpace(values[f.OtherKey()]) == "" {
			missing, sentence := otherMissing(f.Label, m.Title)
			diags = append(diags, Diagnostic{
				Severity: SeverityInfo, Kind: KindOther, ModuleID: m.ID, Name: f.OtherKey(),
				MissingField: missing, Sentence: sentence,
			})
		}
	}
	return diags
}

func checkPhotos(m schema.ModuleConfig, res schema.Resolution, ix *index) []Diagnostic {
	var diags []Diagnostic
	for _, p := range res.RequiredPhotos {
		if ix.hasModulePhoto(m.ID, p.Name) {
			continue
		}
		missing, sentence := photoMissing(p.Label, m.Title)
		diags = append(diags, Diagnostic{
			Severity: SeverityInfo, Kind: KindPhoto, ModuleID: m.ID, Name: p.Name,
			MissingField: missing, Sentence: sentence,
		})
	}
	return diags
}

// ValidateMany validates inspections concurrently. Results are keyed by inspection id.
// Each validation is independent and read-only; concurrency <= 0 means unbounded.
func (v *Validator) ValidateMany(ctx context.Context, ids []string, concurrency int) (map[string]Result, error) {
	results := make([]Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = v.ValidateFinalReport(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

// Progress is the percentage of required modules whose required fields are all filled.
// Photos do not count.
func Progress(registry *schema.Registry, fields []store.FieldRow) int {
	required := registry.RequiredModules()
	if len(required) == 0 {
		return 100
	}
	ix := buildIndex(fields, nil)
	done := 0
	for _, m := range required {
		values, ok := ix.modules[m.ID]
		if !ok || len(values) == 0 {
			continue
		}
		if len(checkFields(m, registry.ResolveModule(m.ID, values), values)) == 0 {
			done++
		}
	}
	return done * 100 / len(required)
}
