// Package app wires the store, validator, checklist engine, exporter and notification sink
// from a loaded configuration. The CLI and the HTTP API both drive inspections through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/config"
	"github.com/ariel-frischer/vistoria/internal/export"
	"github.com/ariel-frischer/vistoria/internal/log"
	"github.com/ariel-frischer/vistoria/internal/notify"
	"github.com/ariel-frischer/vistoria/internal/render"
	"github.com/ariel-frischer/vistoria/internal/report"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
	"github.com/ariel-frischer/vistoria/internal/validation"
)

// Errors returned by App operations. Store lookups keep wrapping store.ErrNotFound.
var (
	ErrPhotoMissing = errors.New("photo file not found")
	ErrNoValues     = errors.New("no values given")
)

// UnknownModuleError names a module id absent from the registry.
type UnknownModuleError struct {
	ID          string
	Suggestions []string
}

func (e *UnknownModuleError) Error() string {
	return "unknown module: " + e.ID
}

// App holds the wired services of one process.
type App struct {
	Config    *config.Configuration
	Registry  *schema.Registry
	Store     *store.Store
	Validator *validation.Validator
	Checklist *checklist.Engine
	Exporter  *export.Exporter
	Notifier  *notify.Handler
	logger    *slog.Logger
}

// Open builds an App from cfg, opening the database at cfg.DatabasePath.
func Open(ctx context.Context, cfg *config.Configuration) (*App, error) {
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	return New(cfg, st), nil
}

// New wires the services around an already opened store.
func New(cfg *config.Configuration, st *store.Store) *App {
	registry := schema.Default()
	notifier := notify.NewHandler(cfg.Notifications, log.For("notify"))
	validator := validation.New(registry, st, log.For("validation"))

	pdf := render.NewPDFRenderer(
		render.WithThumbnailMaxDim(cfg.ThumbnailMaxDim),
		render.WithLogger(log.For("render")),
	)
	exporter := export.New(st, validator, registry,
		export.NewDirStore(cfg.ArtifactsDir, cfg.PublicBaseURL),
		notifier,
		export.Config{
			DefaultMode:      report.Mode(cfg.DefaultMode),
			DefaultRecipient: cfg.DefaultRecipient,
			MaxRetries:       cfg.MaxRetries,
		},
		log.For("export"),
		export.WithRenderers(pdf, render.NewWorkbookRenderer()),
	)

	return &App{
		Config:    cfg,
		Registry:  registry,
		Store:     st,
		Validator: validator,
		Checklist: checklist.NewEngine(st, notifier, registry, log.For("checklist")),
		Exporter:  exporter,
		Notifier:  notifier,
		logger:    log.For("app"),
	}
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}

// Module returns the registry module with the given id, or an *UnknownModuleError carrying
// close matches.
func (a *App) Module(id string) (*schema.ModuleConfig, error) {
	m, ok := a.Registry.Module(id)
	if !ok {
		return nil, &UnknownModuleError{ID: id, Suggestions: a.Registry.Suggest(id)}
	}
	return m, nil
}

// SetModule merges values into one module of an inspection and refreshes its progress.
// An empty value clears the field.
func (a *App) SetModule(ctx context.Context, inspectionID, moduleID string, values map[string]string) (*store.Inspection, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	m, err := a.Module(moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := a.Store.GetInspection(ctx, inspectionID); err != nil {
		return nil, err
	}
	if err := a.Store.MergeModule(ctx, inspectionID, m, values); err != nil {
		return nil, fmt.Errorf("saving module %s: %w", moduleID, err)
	}
	if _, err := a.RefreshProgress(ctx, inspectionID); err != nil {
		return nil, err
	}
	a.logger.Info("module saved", "inspection_id", inspectionID, "module", moduleID, "fields", len(values))
	return a.Store.GetInspection(ctx, inspectionID)
}

// RefreshProgress recomputes the filled percentage of required modules and stores it.
func (a *App) RefreshProgress(ctx context.Context, inspectionID string) (int, error) {
	rows, err := a.Store.FieldRows(ctx, inspectionID)
	if err != nil {
		return 0, err
	}
	progress := validation.Progress(a.Registry, rows)
	if err := a.Store.UpdateProgress(ctx, inspectionID, progress); err != nil {
		return 0, err
	}
	return progress, nil
}

// PhotoInput describes a photo attached to a module.
type PhotoInput struct {
	ModuleID  string
	PhotoType string
	Path      string
	// Required marks the photo as mandatory evidence.
	Required bool
}

// AddPhoto records a photo file. The file must exist; its MIME type comes from the extension.
func (a *App) AddPhoto(ctx context.Context, inspectionID string, in PhotoInput) (*store.MediaRow, error) {
	if in.ModuleID != store.GeneralPhotoType {
		if _, err := a.Module(in.ModuleID); err != nil {
			return nil, err
		}
	}
	if _, err := a.Store.GetInspection(ctx, inspectionID); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(in.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", in.Path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPhotoMissing, in.Path)
	}

	fileType := mime.TypeByExtension(strings.ToLower(filepath.Ext(abs)))
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	if i := strings.IndexByte(fileType, ';'); i >= 0 {
		fileType = fileType[:i]
	}

	row, err := a.Store.AttachMedia(ctx, store.MediaRow{
		InspectionID: inspectionID,
		ModuleType:   in.ModuleID,
		FileName:     filepath.Base(abs),
		FilePath:     abs,
		FileType:     fileType,
		IsRequired:   in.Required,
		PhotoType:    in.PhotoType,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("photo attached", "inspection_id", inspectionID, "module", in.ModuleID, "photo_type", in.PhotoType)
	return row, nil
}

// ExportOptions returns the configured defaults overridden by a non-empty mode.
func (a *App) ExportOptions(mode string) export.Options {
	opts := export.Options{
		Mode:            report.Mode(a.Config.DefaultMode),
		IncludeJSON:     a.Config.IncludeJSON,
		IncludeWorkbook: a.Config.IncludeWorkbook,
	}
	if mode != "" {
		opts.Mode = report.Mode(mode)
	}
	return opts
}

// Export runs the export pipeline bounded by the configured timeout.
func (a *App) Export(ctx context.Context, inspectionID string, opts export.Options) export.Result {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.Exporter.GenerateReportWithOptions(ctx, inspectionID, opts)
}

// RetryDelivery re-sends the links of an export whose email failed.
func (a *App) RetryDelivery(ctx context.Context, exportLogID string) (export.Result, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.Exporter.RetryDelivery(ctx, exportLogID)
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(a.Config.Timeout)*time.Second)
}

// ValidationEntry pairs an inspection with its validation result.
type ValidationEntry struct {
	Inspection store.Inspection
	Result     validation.Result
}

// ValidateAll validates every stored inspection concurrently, in listing order.
func (a *App) ValidateAll(ctx context.Context) ([]ValidationEntry, error) {
	inspections, err := a.Store.ListInspections(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(inspections))
	for i, in := range inspections {
		ids[i] = in.ID
	}
	results, err := a.Validator.ValidateMany(ctx, ids, a.Config.ValidationConcurrency)
	if err != nil {
		return nil, err
	}
	entries := make([]ValidationEntry, len(inspections))
	for i, in := range inspections {
		entries[i] = ValidationEntry{Inspection: in, Result: results[in.ID]}
	}
	return entries, nil
}

// ParseAssignments turns key=value arguments into a value map. Later keys win.
func ParseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", arg)
		}
		values[key] = value
	}
	return values, nil
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
