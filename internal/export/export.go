// Package export generates versioned report artifacts for a validated inspection, records
// every attempt in the export log and hands the links to the notification sink.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/log"
	"github.com/ariel-frischer/vistoria/internal/notify"
	"github.com/ariel-frischer/vistoria/internal/render"
	"github.com/ariel-frischer/vistoria/internal/report"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
	"github.com/ariel-frischer/vistoria/internal/validation"
)

// Metadata keys recorded on the export log.
const (
	MetaPDFURL      = "pdf_url"
	MetaJSONURL     = "json_url"
	MetaWorkbookURL = "workbook_url"
	MetaClientName  = "client_name"
	MetaSendEmail   = "send_email"
)

// Source is the persistence the exporter reads and writes. store.Store implements it.
type Source interface {
	GetInspection(ctx context.Context, id string) (*store.Inspection, error)
	UpdateInspectionStatus(ctx context.Context, id string, status store.Status) error
	FieldRows(ctx context.Context, inspectionID string) ([]store.FieldRow, error)
	MediaRows(ctx context.Context, inspectionID string) ([]store.MediaRow, error)
	Executions(ctx context.Context, inspectionID string) ([]checklist.Execution, error)
	CorrectiveActions(ctx context.Context, inspectionID string) ([]checklist.CorrectiveAction, error)
	WorkOrders(ctx context.Context, inspectionID string) ([]checklist.WorkOrder, error)
	CreateExportLog(ctx context.Context, l *store.ExportLog) error
	UpdateExportLog(ctx context.Context, l *store.ExportLog) error
	GetExportLog(ctx context.Context, id string) (*store.ExportLog, error)
}

// Validator re-checks an inspection before export. validation.Validator implements it.
type Validator interface {
	ValidateFinalReport(ctx context.Context, inspectionID string) validation.Result
}

// Options controls one export.
type Options struct {
	Mode            report.Mode `json:"mode" validate:"required,oneof=compatibility enriched"`
	SendEmail       bool        `json:"send_email"`
	RecipientEmails []string    `json:"recipient_emails,omitempty" validate:"omitempty,dive,email"`
	IncludeJSON     bool        `json:"include_json"`
	IncludeWorkbook bool        `json:"include_workbook"`
	UserID          string      `json:"user_id,omitempty"`
}

// Result is the outcome of an export. Failures carry a human-readable Error and, when the
// validation gate blocked the export, the detailed validation arrays.
type Result struct {
	Success          bool     `json:"success"`
	PDFURL           string   `json:"pdf_url,omitempty"`
	JSONURL          string   `json:"json_url,omitempty"`
	WorkbookURL      string   `json:"workbook_url,omitempty"`
	FileName         string   `json:"file_name,omitempty"`
	Version          int      `json:"version,omitempty"`
	ExportLogID      string   `json:"export_log_id,omitempty"`
	Recipients       []string `json:"recipients,omitempty"`
	Error            string   `json:"error,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
	CriticalErrors   []string `json:"critical_errors,omitempty"`
	EmailError       string   `json:"email_error,omitempty"`
}

// Config holds exporter settings.
type Config struct {
	DefaultMode      report.Mode
	DefaultRecipient string
	MaxRetries       int
}

// ErrNotRetriable is returned by RetryDelivery for exports without a failed delivery.
var ErrNotRetriable = errors.New("export has no failed delivery to retry")

// Exporter runs the export pipeline.
type Exporter struct {
	source    Source
	validator Validator
	registry  *schema.Registry
	templates *checklist.Templates
	artifacts ArtifactStore
	pdf       render.Renderer
	workbook  render.Renderer
	sink      notify.Sink
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithRenderers replaces the PDF and workbook renderers.
func WithRenderers(pdf, workbook render.Renderer) Option {
	return func(e *Exporter) {
		e.pdf = pdf
		e.workbook = workbook
	}
}

// WithTemplates replaces the checklist templates used to label checklist results.
func WithTemplates(t *checklist.Templates) Option {
	return func(e *Exporter) { e.templates = t }
}

// New creates an exporter.
func New(source Source, validator Validator, registry *schema.Registry, artifacts ArtifactStore,
	sink notify.Sink, config Config, logger *slog.Logger, opts ...Option) *Exporter {
	if config.DefaultMode == "" {
		config.DefaultMode = report.ModeEnriched
	}
	e := &Exporter{
		source:    source,
		validator: validator,
		registry:  registry,
		templates: checklist.DefaultTemplates(),
		artifacts: artifacts,
		pdf:       render.NewPDFRenderer(render.WithLogger(logger)),
		workbook:  render.NewWorkbookRenderer(),
		sink:      sink,
		config:    config,
		logger:    log.OrDefault(logger, "export"),
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// GenerateReportWithOptions validates, renders, versions and stores the report of an
// inspection, then optionally emails the links. It never returns an error: every failure is
// reported through Result.
func (e *Exporter) GenerateReportWithOptions(ctx context.Context, inspectionID string, opts Options) (res Result) {
	logger := e.logger.With("inspection_id", inspectionID)
	var entry *store.ExportLog
	defer func() {
		if r := recover(); r != nil {
			logger.Error("export panicked", "panic", r)
			res = Result{Error: fmt.Sprintf("erro interno ao gerar o relatório: %v", r)}
			if entry != nil && entry.ID != "" {
				entry.Status = store.ExportFailed
				entry.Error = fmt.Sprintf("panic: %v", r)
				e.saveLog(ctx, logger, entry)
				res.ExportLogID = entry.ID
			}
		}
	}()

	if opts.Mode == "" {
		opts.Mode = e.config.DefaultMode
	}
	if err := validate.Struct(opts); err != nil {
		return Result{Error: "opções de exportação inválidas: " + err.Error()}
	}

	check := e.validator.ValidateFinalReport(ctx, inspectionID)
	if check.HasCritical() {
		logger.Info("export blocked by validation", "critical", len(check.CriticalErrors), "missing", len(check.MissingFields))
		return Result{
			Error:            "Falha na validação: " + check.Summary(),
			ValidationErrors: check.MissingFields,
			CriticalErrors:   check.CriticalErrors,
		}
	}

	in, err := e.load(ctx, inspectionID)
	if err != nil {
		logger.Error("loading inspection data failed", "error", err)
		return Result{Error: "falha ao carregar os dados da vistoria: " + err.Error()}
	}

	var recipients []string
	if opts.SendEmail {
		recipients = ResolveRecipients(opts.RecipientEmails, clientValues(in.Fields), e.config.DefaultRecipient)
	}

	rep := report.Collect(e.registry, e.templates, in)

	prefix := FilePrefix(rep.Header.ClientName, rep.Header.ExecutionDate)
	existing, err := e.artifacts.List(ctx, prefix)
	if err != nil {
		logger.Error("listing artifacts failed", "prefix", prefix, "error", err)
		return Result{Error: "falha ao consultar versões existentes: " + err.Error()}
	}
	names := make([]string, len(existing))
	for i, a := range existing {
		names[i] = a.Name
	}
	version := NextVersion(prefix, names)
	base := FileBase(prefix, version)

	entry = &store.ExportLog{
		InspectionID: inspectionID,
		UserID:       opts.UserID,
		ArtifactType: e.artifactTypes(opts),
		FileName:     base + "." + e.pdf.Extension(),
		Version:      version,
		Recipients:   recipients,
		Mode:         string(opts.Mode),
		Status:       store.ExportPending,
		Metadata: map[string]string{
			MetaClientName: rep.Header.ClientName,
			MetaSendEmail:  strconv.FormatBool(opts.SendEmail),
		},
	}
	if err := e.source.CreateExportLog(ctx, entry); err != nil {
		logger.Error("creating export log failed", "error", err)
		return Result{Error: "falha ao registrar a exportação: " + err.Error()}
	}
	logger = logger.With("export_log_id", entry.ID, "version", version)

	res = Result{FileName: entry.FileName, Version: version, ExportLogID: entry.ID, Recipients: recipients}

	urls, err := e.publish(ctx, rep, opts, base)
	if err != nil {
		logger.Error("export failed", "error", err)
		entry.Status = store.ExportFailed
		entry.Error = err.Error()
		e.saveLog(ctx, logger, entry)
		res.Error = "falha ao gerar o relatório: " + err.Error()
		return res
	}
	res.PDFURL, res.JSONURL, res.WorkbookURL = urls[MetaPDFURL], urls[MetaJSONURL], urls[MetaWorkbookURL]
	for k, v := range urls {
		entry.Metadata[k] = v
	}
	entry.Status = store.ExportUploaded
	e.saveLog(ctx, logger, entry)

	if opts.SendEmail {
		entry.Attempts = 1
		if err := e.deliver(ctx, entry); err != nil {
			logger.Warn("report delivery failed", "error", err)
			entry.Status = store.ExportEmailFailed
			entry.Error = err.Error()
			res.EmailError = err.Error()
		} else {
			entry.Status = store.ExportSuccess
		}
	} else {
		entry.Status = store.ExportSuccess
	}
	e.saveLog(ctx, logger, entry)

	if err := e.source.UpdateInspectionStatus(ctx, inspectionID, store.StatusReported); err != nil {
		logger.Warn("marking inspection reported failed", "error", err)
	}

	logger.Info("report exported", "file", entry.FileName, "status", string(entry.Status))
	res.Success = true
	return res
}

func (e *Exporter) load(ctx context.Context, id string) (report.Input, error) {
	in := report.Input{GeneratedAt: e.now()}
	insp, err := e.source.GetInspection(ctx, id)
	if err != nil {
		return in, err
	}
	in.Inspection = *insp
	if in.Fields, err = e.source.FieldRows(ctx, id); err != nil {
		return in, fmt.Errorf("module data: %w", err)
	}
	if in.Media, err = e.source.MediaRows(ctx, id); err != nil {
		return in, fmt.Errorf("media: %w", err)
	}
	if in.Executions, err = e.source.Executions(ctx, id); err != nil {
		return in, fmt.Errorf("checklist executions: %w", err)
	}
	if in.Actions, err = e.source.CorrectiveActions(ctx, id); err != nil {
		return in, fmt.Errorf("corrective actions: %w", err)
	}
	if in.WorkOrders, err = e.source.WorkOrders(ctx, id); err != nil {
		return in, fmt.Errorf("work orders: %w", err)
	}
	return in, nil
}

// publish renders every requested artifact and uploads it, returning the URLs by metadata key.
func (e *Exporter) publish(ctx context.Context, rep *report.Report, opts Options, base string) (map[string]string, error) {
	type artifact struct {
		key, name, contentType string
		data                   []byte
	}

	pdf, err := e.pdf.Render(ctx, rep, opts.Mode)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", e.pdf.Extension(), err)
	}
	artifacts := []artifact{{MetaPDFURL, base + "." + e.pdf.Extension(), e.pdf.ContentType(), pdf}}

	if opts.IncludeJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("serializing report: %w", err)
		}
		artifacts = append(artifacts, artifact{MetaJSONURL, base + ".json", "application/json", data})
	}
	if opts.IncludeWorkbook {
		data, err := e.workbook.Render(ctx, rep, opts.Mode)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", e.workbook.Extension(), err)
		}
		artifacts = append(artifacts, artifact{MetaWorkbookURL, base + "." + e.workbook.Extension(), e.workbook.ContentType(), data})
	}

	urls := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		u, err := e.artifacts.Upload(ctx, a.name, a.data, a.contentType)
		if err != nil {
			return nil, fmt.Errorf("uploading %s: %w", a.name, err)
		}
		urls[a.key] = u
	}
	return urls, nil
}

// deliver sends the artifact links of entry. A disabled sink counts as a failed delivery
// so that the export log shows the report never left.
func (e *Exporter) deliver(ctx context.Context, entry *store.ExportLog) error {
	if len(entry.Recipients) == 0 {
		return errors.New("nenhum destinatário disponível para o envio")
	}
	client := entry.Metadata[MetaClientName]
	var b strings.Builder
	fmt.Fprintf(&b, "O relatório de vistoria de %s (versão %d) está disponível.\n", client, entry.Version)
	fmt.Fprintf(&b, "PDF: %s\n", entry.Metadata[MetaPDFURL])
	if u := entry.Metadata[MetaJSONURL]; u != "" {
		fmt.Fprintf(&b, "JSON: %s\n", u)
	}
	if u := entry.Metadata[MetaWorkbookURL]; u != "" {
		fmt.Fprintf(&b, "Planilha: %s\n", u)
	}

	data := map[string]string{"file_name": entry.FileName, "version": strconv.Itoa(entry.Version)}
	for _, k := range []string{MetaPDFURL, MetaJSONURL, MetaWorkbookURL} {
		if v := entry.Metadata[k]; v != "" {
			data[k] = v
		}
	}

	receipt, err := e.sink.Send(ctx, notify.Notification{
		Type:         notify.TypeReportReady,
		Subject:      "Relatório de Vistoria - " + client,
		Message:      b.String(),
		Recipients:   entry.Recipients,
		Urgency:      notify.UrgencyNormal,
		InspectionID: entry.InspectionID,
		Data:         data,
	})
	switch {
	case err != nil:
		return err
	case receipt.Skipped:
		return errors.New("envio de notificações desativado")
	case !receipt.Success:
		return errors.New("envio não confirmado pelo canal " + string(receipt.Channel))
	}
	return nil
}

// RetryDelivery re-sends the links of an export whose delivery failed. Attempts beyond the
// configured maximum return *retry.RetryExhaustedError.
func (e *Exporter) RetryDelivery(ctx context.Context, exportLogID string) (Result, error) {
	entry, err := e.source.GetExportLog(ctx, exportLogID)
	if err != nil {
		return Result{}, fmt.Errorf("loading export log: %w", err)
	}
	logger := e.logger.With("inspection_id", entry.InspectionID, "export_log_id", entry.ID)
	if entry.Status != store.ExportEmailFailed {
		return Result{}, fmt.Errorf("%w (status %s)", ErrNotRetriable, entry.Status)
	}

	state := deliveryState(entry, e.config.MaxRetries)
	if err := state.Increment(e.now()); err != nil {
		logger.Warn("delivery retry refused", "error", err)
		return Result{}, err
	}
	entry.Attempts = state.Count + 1

	res := Result{
		PDFURL:      entry.Metadata[MetaPDFURL],
		JSONURL:     entry.Metadata[MetaJSONURL],
		WorkbookURL: entry.Metadata[MetaWorkbookURL],
		FileName:    entry.FileName,
		Version:     entry.Version,
		ExportLogID: entry.ID,
		Recipients:  entry.Recipients,
		Success:     true,
	}
	if err := e.deliver(ctx, entry); err != nil {
		logger.Warn("delivery retry failed", "attempt", entry.Attempts, "error", err)
		entry.Error = err.Error()
		res.EmailError = err.Error()
	} else {
		logger.Info("delivery retry succeeded", "attempt", entry.Attempts)
		entry.Status = store.ExportSuccess
		entry.Error = ""
	}
	if err := e.source.UpdateExportLog(ctx, entry); err != nil {
		return res, fmt.Errorf("updating export log: %w", err)
	}
	return res, nil
}

func (e *Exporter) saveLog(ctx context.Context, logger *slog.Logger, entry *store.ExportLog) {
	if err := e.source.UpdateExportLog(ctx, entry); err != nil {
		logger.Warn("updating export log failed", "status", string(entry.Status), "error", err)
	}
}

func (e *Exporter) artifactTypes(opts Options) string {
	types := []string{e.pdf.Extension()}
	if opts.IncludeJSON {
		types = append(types, "json")
	}
	if opts.IncludeWorkbook {
		types = append(types, e.workbook.Extension())
	}
	return strings.Join(types, ",")
}

func clientValues(rows []store.FieldRow) map[string]string {
	out := make(map[string]string)
	for _, r := range rows {
		if r.ModuleType == schema.ModuleClient {
			out[r.FieldName] = r.FieldValue
		}
	}
	return out
}
