// Package report renders quotations and lead lists as Excel workbooks.
package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
)

const (
	QuotationSheet = "Propuesta"
	LeadsSheet     = "Cotizaciones"
)

var (
	moneyFormat = `"$"#,##0`
	areaFormat  = `0.00" m²"`
)

type styles struct {
	bold, title, money, boldMoney, area int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	if st.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return st, err
	}
	if st.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat}); err != nil {
		return st, err
	}
	if st.boldMoney, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFormat}); err != nil {
		return st, err
	}
	if st.area, err = f.NewStyle(&excelize.Style{CustomNumFmt: &areaFormat}); err != nil {
		return st, err
	}
	return st, nil
}

// sheetWriter appends label/value rows to a two-column sheet.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) put(label string, value any, style int) {
	w.row++
	if w.err != nil {
		return
	}
	a, b := fmt.Sprintf("A%d", w.row), fmt.Sprintf("B%d", w.row)
	if w.err = w.f.SetCellValue(w.sheet, a, label); w.err != nil {
		return
	}
	if value == nil {
		if style != 0 {
			w.err = w.f.SetCellStyle(w.sheet, a, a, style)
		}
		return
	}
	if w.err = w.f.SetCellValue(w.sheet, b, value); w.err != nil {
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, b, b, style)
	}
}

func (w *sheetWriter) blank() { w.row++ }

// QuotationWorkbook builds the "propuesta económica" for one record. Money
// cells hold numbers rounded to whole pesos.
func QuotationWorkbook(rec *quote.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", QuotationSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}

	w := &sheetWriter{f: f, sheet: QuotationSheet}
	w.put("PROPUESTA ECONÓMICA", nil, st.title)
	w.put("Referencia", rec.ID, 0)
	w.put("Fecha", rec.Payload.Date, 0)
	w.put("Cliente", rec.Contact.Name, 0)
	w.put("Correo", rec.Contact.Email, 0)
	w.put("Teléfono", rec.Contact.Phone, 0)
	w.blank()

	w.put("ÁREAS", nil, st.bold)
	for _, b := range rec.Area.BaseAreas {
		w.put(b.Label, b.Area, st.area)
	}
	w.put("Habitación principal", rec.Area.PrincipalRoom, st.area)
	for _, r := range rec.Area.AdditionalRooms {
		w.put(fmt.Sprintf("Habitación %d", r.Index), r.Area, st.area)
	}
	for _, e := range rec.Area.ExtraSpaces {
		w.put(e.Label, e.Area, st.area)
	}
	w.put("Área total", rec.Area.Total, st.area)
	w.blank()

	for i, stage := range rec.Cost.Stages {
		w.put(stage.Label, nil, st.bold)
		for _, line := range stage.Lines {
			w.put(line.Label, whole(line.Amount), st.money)
		}
		w.put(fmt.Sprintf("Subtotal Etapa %d", i+1), whole(stage.Subtotal), st.boldMoney)
		w.blank()
	}

	w.put("TOTAL GENERAL", whole(rec.Cost.Total), st.boldMoney)
	w.put("Valor en letras", rec.Payload.TotalText, 0)
	w.blank()

	w.put("FORMA DE PAGO", nil, st.bold)
	w.put("Primer pago", whole(rec.Cost.Payment.First), st.money)
	w.put("Segundo pago", whole(rec.Cost.Payment.Second), st.money)
	w.put("Tercer pago", whole(rec.Cost.Payment.Third), st.money)
	w.put("Primer pago con descuento", whole(rec.Cost.Payment.DiscountedFirst), st.money)
	w.put("Total con descuento", whole(rec.Cost.Payment.DiscountedTotal), st.money)

	if w.err != nil {
		return nil, fmt.Errorf("failed to fill sheet: %w", w.err)
	}
	if err := f.SetColWidth(QuotationSheet, "A", "A", 42); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(QuotationSheet, "B", "B", 48); err != nil {
		return nil, err
	}

	return write(f)
}

var leadHeaders = []string{
	"ID", "Referencia", "Fecha", "Origen", "Esquema", "Nombre", "Teléfono", "Correo",
	"Lote", "Área (m²)", "Total diseño", "Total construcción", "Total", "CRM",
}

// LeadsWorkbook lists stored leads, one per row.
func LeadsWorkbook(leads []storage.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeadsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}

	for col, header := range leadHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(LeadsSheet, cell, header); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(leadHeaders), 1)
	if err := f.SetCellStyle(LeadsSheet, "A1", last, st.bold); err != nil {
		return nil, err
	}

	for row, lead := range leads {
		data := []any{
			lead.ID,
			lead.Reference,
			lead.CreatedAt.Format("2006-01-02 15:04"),
			lead.Source,
			lead.Scheme,
			lead.Name,
			lead.Phone,
			lead.Email,
			lead.Lot,
			lead.TotalArea,
			whole(lead.DesignTotal),
			whole(lead.ConstructionTotal),
			whole(lead.Total),
			lead.CRMStatus,
		}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(LeadsSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}
	if len(leads) > 0 {
		from, _ := excelize.CoordinatesToCellName(11, 2)
		to, _ := excelize.CoordinatesToCellName(13, len(leads)+1)
		if err := f.SetCellStyle(LeadsSheet, from, to, st.money); err != nil {
			return nil, err
		}
	}

	return write(f)
}

// QuotationFilename is the attachment name for a record's workbook.
func QuotationFilename(rec *quote.Record) string {
	ref := rec.ID
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return fmt.Sprintf("cotizacion_%s_%s.xlsx", ref, rec.CreatedAt.Format("20060102"))
}

func write(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func whole(v float64) int64 {
	return int64(math.Round(v))
}
