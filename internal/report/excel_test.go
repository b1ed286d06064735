package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
)

func sampleRecord(t *testing.T) *quote.Record {
	t.Helper()
	q, err := quote.NewQuoter(quote.DesignScheme(), quote.DefaultCatalog(),
		quote.WithClock(func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }),
		quote.WithIDGenerator(func() string { return "3f1c8a52-1111-4000-8000-000000000001" }),
	)
	require.NoError(t, err)

	rec, err := q.Quote(
		quote.Contact{Name: "Ana Ruiz", Phone: "+573001234567", Email: "ana@example.com"},
		quote.Responses{Lot: "si", PrincipalBed: "queen", ExtraSpaces: []string{"estudio"}},
		0,
	)
	require.NoError(t, err)
	return rec
}

// labelled maps column A to column B using raw cell values.
func labelled(t *testing.T, data []byte, sheet string) map[string]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	out := make(map[string]string)
	for _, row := range rows {
		switch len(row) {
		case 0:
		case 1:
			out[row[0]] = ""
		default:
			out[row[0]] = row[1]
		}
	}
	return out
}

func TestQuotationWorkbook(t *testing.T) {
	rec := sampleRecord(t)

	data, err := QuotationWorkbook(rec)
	require.NoError(t, err)

	cells := labelled(t, data, QuotationSheet)
	assert.Contains(t, cells, "PROPUESTA ECONÓMICA")
	assert.Equal(t, rec.ID, cells["Referencia"])
	assert.Equal(t, "19 de octubre de 2026", cells["Fecha"])
	assert.Equal(t, "Ana Ruiz", cells["Cliente"])
	assert.Equal(t, "85.5", cells["Área total"])
	assert.Equal(t, "18", cells["Habitación principal"])
	assert.Equal(t, "14", cells["Estudio"])
	assert.Equal(t, "15376833", cells["TOTAL GENERAL"])
	assert.Equal(t, rec.Payload.TotalText, cells["Valor en letras"])
	assert.Contains(t, cells, "Subtotal Etapa 2")
	assert.NotContains(t, cells, "Subtotal Etapa 3")
}

func TestQuotationWorkbookConstruction(t *testing.T) {
	scheme, err := quote.SchemeByName(quote.SchemeDesignConstruction, 2_000_000)
	require.NoError(t, err)
	q, err := quote.NewQuoter(scheme, quote.DefaultCatalog())
	require.NoError(t, err)
	rec, err := q.Quote(quote.Contact{Name: "Ana"},
		quote.Responses{PrincipalBed: "sencilla", ExtraSpaces: []string{}}, 0)
	require.NoError(t, err)

	data, err := QuotationWorkbook(rec)
	require.NoError(t, err)

	cells := labelled(t, data, QuotationSheet)
	assert.Equal(t, "134000000", cells["Construcción"])
	assert.Contains(t, cells, "Subtotal Etapa 3")
}

func TestLeadsWorkbook(t *testing.T) {
	created := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	leads := []storage.Lead{
		{ID: 1, Reference: "ref-1", Source: storage.SourceTelegram, Scheme: quote.SchemeDesign, Name: "Ana",
			TotalArea: 85.5, DesignTotal: 15376833.4, Total: 15376833.4, CRMStatus: storage.CRMSent, CreatedAt: created},
		{ID: 2, Reference: "ref-2", Source: storage.SourceAPI, Scheme: quote.SchemeDesign, Name: "Luis",
			TotalArea: 90, Total: 1, CRMStatus: storage.CRMPending, CreatedAt: created},
	}

	data, err := LeadsWorkbook(leads)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LeadsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, leadHeaders, rows[0])
	assert.Equal(t, "ref-1", rows[1][1])
	assert.Equal(t, "2026-10-19 09:30", rows[1][2])
	assert.Equal(t, "15376833", rows[1][12])
	assert.Equal(t, storage.CRMPending, rows[2][13])
}

func TestLeadsWorkbookEmpty(t *testing.T) {
	data, err := LeadsWorkbook(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestQuotationFilename(t *testing.T) {
	rec := sampleRecord(t)
	assert.Equal(t, "cotizacion_3f1c8a52_20261019.xlsx", QuotationFilename(rec))
}
