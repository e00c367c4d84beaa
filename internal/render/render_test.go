// Package render tests PDF and workbook rendering of the canonical report.
// Related: internal/render/pdf_renderer.go, internal/render/workbook.go, internal/render/thumbnail.go
// Tags: render, pdf, xlsx, thumbnails

package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/log"
	"github.com/ariel-frischer/vistoria/internal/report"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
	"github.com/ariel-frischer/vistoria/internal/testutil"
)

func sampleReport(t *testing.T, values map[string]map[string]string) *report.Report {
	t.Helper()
	v := 121.0
	return report.Collect(schema.Default(), checklist.DefaultTemplates(), report.Input{
		Inspection: store.Inspection{ID: "insp-1"},
		Fields:     testutil.Rows("insp-1", values),
		Media:      testutil.CompleteMedia("insp-1"),
		Executions: []checklist.Execution{{
			ItemID: "conv_bt_voltage_fn", Status: checklist.StatusFailed, MeasuredValue: &v,
			Validation: &checklist.MeasurementResult{Message: "Valor fora da faixa aceitável"},
		}},
		Actions: []checklist.CorrectiveAction{{
			ID: "a1", Description: "Tensão fora da faixa", Criticality: checklist.CriticalityHigh,
			Status: checklist.ActionPending, WorkOrderID: "w1",
		}},
		WorkOrders:  []checklist.WorkOrder{{ID: "w1", Number: "OS-20260314-ABC123"}},
		GeneratedAt: time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC),
	})
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func winAnsi(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func newTestPDFRenderer(t *testing.T, loader PhotoLoader) *PDFRenderer {
	t.Helper()
	return NewPDFRenderer(WithPhotoLoader(loader), WithThumbnailMaxDim(64), WithCompression(false),
		WithLogger(log.Discard()))
}

func TestPDFRenderer_Structure(t *testing.T) {
	t.Parallel()
	photo := pngBytes(t, 200, 100)
	r := newTestPDFRenderer(t, func(string) ([]byte, error) { return photo, nil })

	out, err := r.Render(context.Background(), sampleReport(t, testutil.CompleteValues()), report.ModeEnriched)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-1.")))
	assert.Contains(t, string(out), "%%EOF")
	assert.Contains(t, string(out), "/BaseFont /Helvetica")
	assert.Contains(t, string(out), "/Encoding /WinAnsiEncoding")
	assert.Contains(t, string(out), "/Filter /DCTDecode")
	assert.Contains(t, string(out), "/Width 64")
	assert.Contains(t, string(out), "/Height 32")
	assert.Equal(t, "application/pdf", r.ContentType())
	assert.Equal(t, "pdf", r.Extension())
}

func TestPDFRenderer_TextIsWinAnsi(t *testing.T) {
	t.Parallel()
	r := newTestPDFRenderer(t, FileLoader)

	out, err := r.Render(context.Background(), sampleReport(t, testutil.CompleteValues()), report.ModeEnriched)
	require.NoError(t, err)

	assert.True(t, bytes.Contains(out, winAnsi(t, "Cliente: Condomínio São João")))
	assert.True(t, bytes.Contains(out, winAnsi(t, "OS OS-20260314-ABC123")))
	assert.True(t, bytes.Contains(out, winAnsi(t, "[Não conforme] Medir tensão secundária fase-neutro: 121 V")))
	assert.False(t, bytes.Contains(out, []byte("Condomínio")), "UTF-8 text must not leak into content streams")
}

func TestPDFRenderer_Modes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mode        report.Mode
		wantPresent []string
		wantAbsent  []string
	}{
		"enriched prints maintenance history": {
			mode:        report.ModeEnriched,
			wantPresent: []string{"Dados Iniciais", "Histórico de Manutenção", "Eletro Manutenção Ltda"},
			wantAbsent:  []string{"1. DADOS INICIAIS"},
		},
		"compatibility uses legacy titles": {
			mode:        report.ModeCompatibility,
			wantPresent: []string{"1. DADOS INICIAIS", "4. TRANSFORMADORES", "7. ANEXOS FOTOGRÁFICOS"},
			wantAbsent:  []string{"Histórico de Manutenção", "Eletro Manutenção Ltda"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := newTestPDFRenderer(t, FileLoader)
			out, err := r.Render(context.Background(), sampleReport(t, testutil.CompleteValues()), tt.mode)
			require.NoError(t, err)
			for _, s := range tt.wantPresent {
				assert.True(t, bytes.Contains(out, winAnsi(t, s)), "missing %q", s)
			}
			for _, s := range tt.wantAbsent {
				assert.False(t, bytes.Contains(out, winAnsi(t, s)), "unexpected %q", s)
			}
		})
	}
}

func TestPDFRenderer_UnreadablePhotoIsListed(t *testing.T) {
	t.Parallel()
	r := newTestPDFRenderer(t, func(string) ([]byte, error) { return nil, errors.New("gone") })

	out, err := r.Render(context.Background(), sampleReport(t, testutil.CompleteValues()), report.ModeEnriched)
	require.NoError(t, err)

	assert.True(t, bytes.Contains(out, winAnsi(t, "Foto indisponível: facade.jpg")))
	assert.NotContains(t, string(out), "/Subtype /Image")
}

func TestPDFRenderer_EscapesDelimiters(t *testing.T) {
	t.Parallel()
	values := testutil.Set(testutil.CompleteValues(), "client", "client_name", `ACME (Filial) \ Sul`)
	r := newTestPDFRenderer(t, FileLoader)

	out, err := r.Render(context.Background(), sampleReport(t, values), report.ModeEnriched)
	require.NoError(t, err)
	assert.Contains(t, string(out), `Cliente: ACME \(Filial\) \\ Sul`)
}

func TestPDFRenderer_PaginatesLongText(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("Irregularidade registrada no quadro geral. ", 400)
	values := testutil.Set(testutil.CompleteValues(), "general", "irregularities", long)
	r := newTestPDFRenderer(t, FileLoader)

	out, err := r.Render(context.Background(), sampleReport(t, values), report.ModeEnriched)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, winAnsi(t, "Página 2 de")))
	assert.False(t, bytes.Contains(out, []byte("{nb}")), "page count alias must be replaced")
}

func TestPDFRenderer_Errors(t *testing.T) {
	t.Parallel()
	r := newTestPDFRenderer(t, FileLoader)

	_, err := r.Render(context.Background(), nil, report.ModeEnriched)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, sampleReport(t, testutil.CompleteValues()), report.ModeEnriched)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPDFRenderer_EmptyReport(t *testing.T) {
	t.Parallel()
	r := newTestPDFRenderer(t, FileLoader)
	rep := report.Collect(schema.Default(), checklist.DefaultTemplates(), report.Input{})

	out, err := r.Render(context.Background(), rep, report.ModeCompatibility)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, winAnsi(t, noData)))
}

func TestPDFRenderer_Compressed(t *testing.T) {
	t.Parallel()
	rep := sampleReport(t, testutil.CompleteValues())

	plain, err := newTestPDFRenderer(t, FileLoader).Render(context.Background(), rep, report.ModeEnriched)
	require.NoError(t, err)
	packed, err := NewPDFRenderer(WithPhotoLoader(FileLoader), WithLogger(log.Discard())).
		Render(context.Background(), rep, report.ModeEnriched)
	require.NoError(t, err)

	assert.Contains(t, string(packed), "/FlateDecode")
	assert.Less(t, len(packed), len(plain))
	assert.False(t, bytes.Contains(packed, winAnsi(t, "Cliente: Condomínio São João")))
}

func TestFitDimensions(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		w, h, max     int
		wantW, wantH int
	}{
		"within limit": {w: 100, h: 50, max: 200, wantW: 100, wantH: 50},
		"landscape":    {w: 1600, h: 900, max: 800, wantW: 800, wantH: 450},
		"portrait":     {w: 900, h: 1800, max: 600, wantW: 300, wantH: 600},
		"no limit":     {w: 10, h: 20, max: 0, wantW: 10, wantH: 20},
		"thin":         {w: 4000, h: 1, max: 100, wantW: 100, wantH: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			w, h := fitDimensions(tt.w, tt.h, tt.max)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestThumbnail(t *testing.T) {
	t.Parallel()

	out, w, h, err := thumbnail(pngBytes(t, 300, 150), 100)
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
	assert.Equal(t, []byte{0xFF, 0xD8}, out[:2])

	_, _, _, err = thumbnail(nil, 100)
	require.ErrorIs(t, err, errEmptyImage)

	_, _, _, err = thumbnail([]byte("not an image"), 100)
	require.Error(t, err)
}

func TestWorkbookRenderer(t *testing.T) {
	t.Parallel()
	w := NewWorkbookRenderer()

	out, err := w.Render(context.Background(), sampleReport(t, testutil.CompleteValues()), report.ModeEnriched)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetData, SheetMeasurements, SheetChecklist, SheetPhotos}, f.GetSheetList())

	client, err := f.GetCellValue(SheetData, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Condomínio São João", client)

	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	assert.Contains(t, flatten(rows), "Eletro Manutenção Ltda")

	photos, err := f.GetRows(SheetPhotos)
	require.NoError(t, err)
	assert.Len(t, photos, 5)

	checklistRows, err := f.GetRows(SheetChecklist)
	require.NoError(t, err)
	assert.Contains(t, flatten(checklistRows), "OS-20260314-ABC123")
	assert.Contains(t, flatten(checklistRows), "Não conforme")

	measurements, err := f.GetRows(SheetMeasurements)
	require.NoError(t, err)
	assert.Equal(t, []string{"Módulo", "Medição", "Valor", "Unidade", "Fora da Faixa"}, measurements[0])
}

func TestWorkbookRenderer_CompatibilityDropsMaintenance(t *testing.T) {
	t.Parallel()
	w := NewWorkbookRenderer()

	out, err := w.Render(context.Background(), sampleReport(t, testutil.CompleteValues()), report.ModeCompatibility)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	assert.NotContains(t, flatten(rows), "Eletro Manutenção Ltda")
	assert.Contains(t, flatten(rows), "1. DADOS INICIAIS")
}

func flatten(rows [][]string) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}
