package render

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ariel-frischer/vistoria/internal/report"
	"github.com/ariel-frischer/vistoria/internal/textnorm"
)

// Workbook sheet names.
const (
	SheetData         = "Dados"
	SheetMeasurements = "Medições"
	SheetChecklist    = "Checklist"
	SheetPhotos       = "Fotos"
)

// WorkbookRenderer renders the report as an XLSX workbook.
type WorkbookRenderer struct{}

// NewWorkbookRenderer creates a workbook renderer.
func NewWorkbookRenderer() *WorkbookRenderer {
	return &WorkbookRenderer{}
}

// ContentType implements Renderer.
func (w *WorkbookRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (w *WorkbookRenderer) Extension() string { return "xlsx" }

// Render implements Renderer.
func (w *WorkbookRenderer) Render(ctx context.Context, rep *report.Report, mode report.Mode) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("render workbook: nil report")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetData); err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	for _, name := range []string{SheetMeasurements, SheetChecklist, SheetPhotos} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("render workbook: creating sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	steps := []func(*sheetWriter){
		func(sw *sheetWriter) { dataSheet(sw, rep, mode) },
		func(sw *sheetWriter) { measurementSheet(sw, rep) },
		func(sw *sheetWriter) { checklistSheet(sw, rep) },
		func(sw *sheetWriter) { photoSheet(sw, rep) },
	}
	for i, name := range []string{SheetData, SheetMeasurements, SheetChecklist, SheetPhotos} {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render workbook: %w", err)
		}
		sw := &sheetWriter{f: f, sheet: name, bold: bold}
		steps[i](sw)
		if sw.err != nil {
			return nil, fmt.Errorf("render workbook: sheet %s: %w", name, sw.err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter appends rows to one sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	bold  int
	row   int
	err   error
}

func (sw *sheetWriter) append(values ...any) {
	if sw.err != nil {
		return
	}
	sw.row++
	cell, err := excelize.CoordinatesToCellName(1, sw.row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetSheetRow(sw.sheet, cell, &values)
}

func (sw *sheetWriter) heading(values ...any) {
	sw.append(values...)
	if sw.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, sw.row)
	last, _ := excelize.CoordinatesToCellName(max(len(values), 1), sw.row)
	sw.err = sw.f.SetCellStyle(sw.sheet, first, last, sw.bold)
}

func (sw *sheetWriter) widths(cols string, width float64) {
	if sw.err != nil {
		return
	}
	start, end := cols[:1], cols[len(cols)-1:]
	sw.err = sw.f.SetColWidth(sw.sheet, start, end, width)
}

func dataSheet(sw *sheetWriter, rep *report.Report, mode report.Mode) {
	h := rep.Header
	sw.heading(documentTitle)
	sw.append("Cliente", h.ClientName)
	sw.append("Obra/Local", h.WorkSite)
	sw.append("Endereço", h.Address)
	sw.append("Data de Execução", h.ExecutionDate)
	sw.append("Técnico Responsável", h.Technician)
	sw.append("Tipo de Cabine", firstOf(h.CabinLabel, h.CabinType))
	sw.append("Gerado em", h.GeneratedAt.Format("02/01/2006 15:04"))
	sw.append()
	sw.heading("Seção", "Módulo", "Campo", "Valor")
	for _, sc := range sectionModules(rep, mode) {
		for _, m := range sc.Modules {
			for _, e := range m.Entries {
				sw.append(sc.Title, m.Title, e.Label, entryText(e))
			}
		}
	}
	sw.widths("AD", 32)
}

func measurementSheet(sw *sheetWriter, rep *report.Report) {
	sw.heading("Módulo", "Medição", "Valor", "Unidade", "Fora da Faixa")
	for _, m := range rep.Measurements {
		value := any(m.Value)
		if v, ok := textnorm.ParseNumber(m.Value); ok {
			value = v
		}
		sw.append(m.ModuleID, m.Label, value, m.Unit, yesNo(m.OutOfRange))
	}
	sw.widths("AE", 24)
}

func checklistSheet(sw *sheetWriter, rep *report.Report) {
	sw.heading("Item", "Ação", "Categoria", "Criticidade", "Situação", "Esperado", "Medido", "Unidade", "Mensagem", "Observação")
	for _, c := range rep.Checklist {
		var measured any
		if c.MeasuredValue != nil {
			measured = *c.MeasuredValue
		}
		sw.append(c.ItemID, c.Action, string(c.Category), criticalityLabel(c.Criticality), statusLabel(c.Status),
			c.ExpectedValue, measured, c.Unit, c.Message, c.Observation)
	}
	if len(rep.CorrectiveActions) > 0 {
		sw.append()
		sw.heading("Ação Corretiva", "Item", "Criticidade", "Situação", "Ordem de Serviço")
		numbers := make(map[string]string, len(rep.WorkOrders))
		for _, o := range rep.WorkOrders {
			numbers[o.ID] = o.Number
		}
		for _, a := range rep.CorrectiveActions {
			sw.append(a.Description, a.ItemID, criticalityLabel(a.Criticality), string(a.Status), numbers[a.WorkOrderID])
		}
	}
	sw.widths("AJ", 20)
}

func photoSheet(sw *sheetWriter, rep *report.Report) {
	sw.heading("Módulo", "Tipo", "Descrição", "Arquivo")
	for _, p := range rep.Photos {
		sw.append(p.ModuleID, p.PhotoType, p.Label, p.FileName)
	}
	sw.widths("AD", 28)
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
