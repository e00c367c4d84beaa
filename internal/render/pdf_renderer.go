package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/log"
	"github.com/ariel-frischer/vistoria/internal/report"
)

const (
	documentTitle = "Relatório de Vistoria Técnica"
	noData        = "Sem dados registrados."

	// Page geometry in points.
	margin  = 50.0
	footerY = -30.0
	// photoWidth is the printed width of a thumbnail.
	photoWidth     = 240.0
	photoMaxHeight = 400.0
)

// PDFRenderer renders a paginated text PDF with embedded photo thumbnails.
type PDFRenderer struct {
	load     PhotoLoader
	maxDim   int
	compress bool
	logger   *slog.Logger
}

// PDFOption customizes a PDFRenderer.
type PDFOption func(*PDFRenderer)

// WithPhotoLoader replaces the filesystem photo loader.
func WithPhotoLoader(l PhotoLoader) PDFOption {
	return func(r *PDFRenderer) { r.load = l }
}

// WithThumbnailMaxDim bounds the pixel size of embedded photos.
func WithThumbnailMaxDim(n int) PDFOption {
	return func(r *PDFRenderer) {
		if n > 0 {
			r.maxDim = n
		}
	}
}

// WithCompression toggles deflate compression of page content streams.
func WithCompression(on bool) PDFOption {
	return func(r *PDFRenderer) { r.compress = on }
}

// WithLogger sets the renderer logger.
func WithLogger(l *slog.Logger) PDFOption {
	return func(r *PDFRenderer) { r.logger = l }
}

// NewPDFRenderer creates a PDF renderer.
func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{load: FileLoader, maxDim: DefaultThumbnailMaxDim, compress: true}
	for _, o := range opts {
		o(r)
	}
	r.logger = log.OrDefault(r.logger, "render")
	return r
}

// ContentType implements Renderer.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string { return "pdf" }

// Render implements Renderer. A photo that cannot be read or decoded is listed by name
// instead of failing the document.
func (r *PDFRenderer) Render(ctx context.Context, rep *report.Report, mode report.Mode) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("render pdf: nil report")
	}
	d := r.newDocument(rep.Header)
	logger := r.logger.With("inspection_id", rep.Header.InspectionID, "mode", string(mode))

	d.text(0, "B", 16, documentTitle)
	d.pdf.Ln(6)
	r.header(d, rep.Header)

	for _, sc := range sectionModules(rep, mode) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		d.pdf.Ln(10)
		d.text(0, "B", 13, sc.Title)
		d.pdf.Ln(4)

		printed := 0
		for _, m := range sc.Modules {
			printed += r.module(d, m)
		}
		switch sc.ID {
		case report.SectionTestResults:
			printed += r.measurements(d, rep.Measurements)
			printed += r.checklist(d, rep.Checklist)
		case report.SectionIrregularities:
			printed += r.actions(d, rep.CorrectiveActions, rep.WorkOrders)
		case report.SectionAttachments:
			n, err := r.photos(ctx, d, logger, rep.Photos)
			if err != nil {
				return nil, err
			}
			printed += n
		}
		if printed == 0 {
			d.text(0, "", 10, noData)
		}
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	logger.Debug("pdf rendered", "pages", d.pdf.PageCount(), "images", d.images)
	return buf.Bytes(), nil
}

// document is an A4 fpdf document writing pt-BR text as cp1252.
type document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	images int
}

func (r *PDFRenderer) newDocument(h report.Header) *document {
	pdf := fpdf.New("P", "pt", "A4", "")
	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetCompression(r.compress)
	pdf.SetTitle(documentTitle, true)
	pdf.SetProducer("vistoria", false)
	if !h.GeneratedAt.IsZero() {
		pdf.SetCreationDate(h.GeneratedAt)
	}
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(footerY)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 10, d.tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "L", false, 0, "")
	})
	pdf.AddPage()
	return d
}

// text writes s wrapped to the usable width, indent points right of the margin.
func (d *document) text(indent float64, style string, size float64, s string) {
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.SetLeftMargin(margin + indent)
	d.pdf.SetX(margin + indent)
	d.pdf.MultiCell(0, size*1.4, d.tr(s), "", "L", false)
	d.pdf.SetLeftMargin(margin)
}

// image places a JPEG at the left margin, w x h points. Flow mode breaks the page when needed.
func (d *document) image(jpg []byte, w, h float64) error {
	d.images++
	name := fmt.Sprintf("photo-%d", d.images)
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(jpg))
	if err := d.pdf.Error(); err != nil {
		return err
	}
	d.pdf.ImageOptions(name, margin, d.pdf.GetY(), w, h, true, opts, 0, "")
	return nil
}

func (r *PDFRenderer) header(d *document, h report.Header) {
	rows := []struct{ label, value string }{
		{"Cliente", h.ClientName},
		{"Obra/Local", h.WorkSite},
		{"Endereço", h.Address},
		{"Data de Execução", h.ExecutionDate},
		{"Técnico Responsável", h.Technician},
		{"Tipo de Cabine", firstOf(h.CabinLabel, h.CabinType)},
		{"Gerado em", h.GeneratedAt.Format("02/01/2006 15:04")},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		d.text(0, "", 10, row.label+": "+row.value)
	}
}

func (r *PDFRenderer) module(d *document, m report.Module) int {
	if len(m.Entries) == 0 {
		return 0
	}
	d.pdf.Ln(4)
	d.text(0, "B", 11, m.Title)
	for _, e := range m.Entries {
		d.text(10, "", 10, e.Label+": "+entryText(e))
	}
	return len(m.Entries)
}

func (r *PDFRenderer) measurements(d *document, ms []report.Measurement) int {
	if len(ms) == 0 {
		return 0
	}
	d.pdf.Ln(4)
	d.text(0, "B", 11, "Medições")
	for _, m := range ms {
		line := m.Label + ": " + m.Value
		if m.Unit != "" {
			line += " " + m.Unit
		}
		if m.OutOfRange {
			line += " (fora da faixa)"
		}
		d.text(10, "", 10, line)
	}
	return len(ms)
}

func (r *PDFRenderer) checklist(d *document, results []report.ChecklistResult) int {
	if len(results) == 0 {
		return 0
	}
	d.pdf.Ln(4)
	d.text(0, "B", 11, "Checklist")
	for _, c := range results {
		line := "[" + statusLabel(c.Status) + "] " + c.Action
		if c.MeasuredValue != nil {
			line += ": " + strconv.FormatFloat(*c.MeasuredValue, 'f', -1, 64)
			if c.Unit != "" {
				line += " " + c.Unit
			}
		}
		d.text(10, "", 10, line)
		if c.Message != "" {
			d.text(20, "", 9, c.Message)
		}
		if c.Observation != "" {
			d.text(20, "", 9, "Obs.: "+c.Observation)
		}
	}
	return len(results)
}

func (r *PDFRenderer) actions(d *document, actions []checklist.CorrectiveAction, orders []checklist.WorkOrder) int {
	if len(actions) == 0 {
		return 0
	}
	numbers := make(map[string]string, len(orders))
	for _, o := range orders {
		numbers[o.ID] = o.Number
	}
	d.pdf.Ln(4)
	d.text(0, "B", 11, "Ações Corretivas")
	for _, a := range actions {
		line := "[" + criticalityLabel(a.Criticality) + "] " + a.Description
		if n := numbers[a.WorkOrderID]; n != "" {
			line += " (OS " + n + ")"
		}
		d.text(10, "", 10, line)
	}
	return len(actions)
}

func (r *PDFRenderer) photos(ctx context.Context, d *document, logger *slog.Logger, photos []report.Photo) (int, error) {
	for _, p := range photos {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("render pdf: %w", err)
		}
		d.pdf.Ln(6)
		d.text(0, "B", 10, p.Label)

		data, err := r.load(p.Path)
		if err == nil {
			var jpg []byte
			var w, h int
			jpg, w, h, err = thumbnail(data, r.maxDim)
			if err == nil {
				d.pdf.Ln(4)
				pw, ph := photoWidth, photoWidth*float64(h)/float64(w)
				if ph > photoMaxHeight {
					pw, ph = pw*photoMaxHeight/ph, photoMaxHeight
				}
				if err := d.image(jpg, pw, ph); err != nil {
					return 0, fmt.Errorf("render pdf: embedding %s: %w", p.FileName, err)
				}
				continue
			}
		}
		logger.Warn("photo not embedded", "file", p.FileName, "error", err)
		d.text(10, "", 9, "Foto indisponível: "+p.FileName)
	}
	return len(photos), nil
}

func statusLabel(s checklist.ExecutionStatus) string {
	switch s {
	case checklist.StatusCompleted:
		return "Conforme"
	case checklist.StatusFailed:
		return "Não conforme"
	case checklist.StatusNotApplicable:
		return "N/A"
	}
	return "Pendente"
}

func criticalityLabel(c checklist.Criticality) string {
	switch c {
	case checklist.CriticalityHigh:
		return "Alta"
	case checklist.CriticalityMedium:
		return "Média"
	}
	return "Baixa"
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
