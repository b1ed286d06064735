package quote

import (
	"fmt"
	"strings"
	"time"
)

// FormatPDF is the document format requested from the downstream generator.
const FormatPDF = "pdf"

// Contact is the client identity collected at the end of the intake.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type StageOnePayload struct {
	ArchitecturalDesign float64 `json:"Diseño_Arquitectonico"`
	StructuralDesign    float64 `json:"Diseño_Estructural"`
	Licensing           float64 `json:"Acompañamiento_Licencias"`
	Subtotal            float64 `json:"Subtotal_Etapa_I"`
}

type StageTwoPayload struct {
	ElectricalDesign float64 `json:"Diseño_Electrico"`
	HydraulicDesign  float64 `json:"Diseño_Hidraulico"`
	Budgeting        float64 `json:"Presupuesto_Proyecto"`
	Subtotal         float64 `json:"Subtotal_Etapa_II"`
}

type StageThreePayload struct {
	Construction float64 `json:"Construccion"`
	Subtotal     float64 `json:"Subtotal_Etapa_III"`
}

type EconomicProposal struct {
	Stage1    StageOnePayload    `json:"Etapa1"`
	Stage2    StageTwoPayload    `json:"Etapa2"`
	Stage3    *StageThreePayload `json:"Etapa3,omitempty"`
	Total     float64            `json:"Total_General"`
	TotalText string             `json:"Total_General_Texto"`
}

// Payload is the record handed to the document/CRM integration. The json
// keys are that integration's field names; renaming one is a breaking change.
type Payload struct {
	Format           string           `json:"formato"`
	Reference        string           `json:"referencia,omitempty"`
	Scheme           string           `json:"esquema"`
	AreaTotal        float64          `json:"area_total"`
	QuotationText    string           `json:"cotizacionTexto"`
	EconomicProposal EconomicProposal `json:"economicProposalJSON"`

	ArchitecturalDesign string `json:"Diseño_Ar"`
	StructuralDesign    string `json:"Diseño_Calcu"`
	Licensing           string `json:"Acompañamie"`
	Subtotal1           string `json:"Subtotal_1"`
	ElectricalDesign    string `json:"Diseño_Electrico"`
	HydraulicDesign     string `json:"Diseño_Hidraulico"`
	Budgeting           string `json:"Presupuesta"`
	Subtotal2           string `json:"Subtotal_2"`
	Construction        string `json:"Construccion,omitempty"`
	Subtotal3           string `json:"Subtotal_3,omitempty"`
	Total               string `json:"Total"`

	Date      string `json:"fecha"`
	Name      string `json:"nombre"`
	Email     string `json:"correo"`
	Phone     string `json:"telefono"`
	TotalText string `json:"texto"`
}

// Record is a finished quotation. It is not modified after FormatQuotation
// (or Quoter.Quote) returns it.
type Record struct {
	ID        string        `json:"id"`
	Scheme    string        `json:"scheme"`
	CreatedAt time.Time     `json:"created_at"`
	Contact   Contact       `json:"contact"`
	Area      AreaBreakdown `json:"area"`
	Cost      CostBreakdown `json:"cost"`
	Text      string        `json:"text"`
	Payload   Payload       `json:"payload"`
}

// FormatQuotation assembles the chat text and the integration payload. now is
// the only source of the submission date.
func FormatQuotation(s PricingScheme, contact Contact, area AreaBreakdown, cost CostBreakdown, now time.Time) Record {
	text := quotationText(s, contact, area, cost, now)
	return Record{
		Scheme:    s.Name,
		CreatedAt: now,
		Contact:   contact,
		Area:      area,
		Cost:      cost,
		Text:      text,
		Payload:   buildPayload(s, contact, area, cost, text, now),
	}
}

func buildPayload(s PricingScheme, contact Contact, area AreaBreakdown, cost CostBreakdown, text string, now time.Time) Payload {
	amount := func(category string) float64 {
		v, _ := cost.Amount(category)
		return v
	}
	subtotal := func(stage string) float64 {
		st, _ := cost.Stage(stage)
		return st.Subtotal
	}
	money := func(v float64) string {
		return "$ " + FormatAmount(v)
	}
	spelled := SpellPesos(cost.Total)

	p := Payload{
		Format:        FormatPDF,
		Scheme:        s.Name,
		AreaTotal:     area.Total,
		QuotationText: text,
		EconomicProposal: EconomicProposal{
			Stage1: StageOnePayload{
				ArchitecturalDesign: amount(CategoryArchitectural),
				StructuralDesign:    amount(CategoryStructural),
				Licensing:           amount(CategoryLicensing),
				Subtotal:            subtotal("etapa_1"),
			},
			Stage2: StageTwoPayload{
				ElectricalDesign: amount(CategoryElectrical),
				HydraulicDesign:  amount(CategoryHydraulic),
				Budgeting:        amount(CategoryBudgeting),
				Subtotal:         subtotal("etapa_2"),
			},
			Total:     cost.Total,
			TotalText: spelled,
		},
		ArchitecturalDesign: money(amount(CategoryArchitectural)),
		StructuralDesign:    money(amount(CategoryStructural)),
		Licensing:           money(amount(CategoryLicensing)),
		Subtotal1:           money(subtotal("etapa_1")),
		ElectricalDesign:    money(amount(CategoryElectrical)),
		HydraulicDesign:     money(amount(CategoryHydraulic)),
		Budgeting:           money(amount(CategoryBudgeting)),
		Subtotal2:           money(subtotal("etapa_2")),
		Total:               money(cost.Total),
		Date:                FormatDate(now),
		Name:                contact.Name,
		Email:               contact.Email,
		Phone:               contact.Phone,
		TotalText:           spelled,
	}

	if construction, ok := cost.Amount(CategoryConstruction); ok {
		p.EconomicProposal.Stage3 = &StageThreePayload{
			Construction: construction,
			Subtotal:     subtotal("etapa_3"),
		}
		p.Construction = money(construction)
		p.Subtotal3 = money(subtotal("etapa_3"))
	}
	return p
}

var romanNumerals = [...]string{"I", "II", "III", "IV", "V", "VI"}

func roman(i int) string {
	if i < len(romanNumerals) {
		return romanNumerals[i]
	}
	return fmt.Sprint(i + 1)
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func humanLabel(value string) string {
	return strings.ReplaceAll(value, "_", " ")
}

func quotationText(s PricingScheme, contact Contact, area AreaBreakdown, cost CostBreakdown, now time.Time) string {
	var b strings.Builder
	p := s.Payment

	b.WriteString("🎉 COTIZACIÓN COMPLETA GENERADA\n\n")
	fmt.Fprintf(&b, "👤 Cliente: %s\n", contact.Name)
	fmt.Fprintf(&b, "📧 Correo: %s\n", contact.Email)
	fmt.Fprintf(&b, "📱 Teléfono: %s\n", contact.Phone)
	fmt.Fprintf(&b, "📅 Fecha: %s\n\n", FormatDate(now))

	b.WriteString(areaText(area))

	b.WriteString("\n💰 PROPUESTA ECONÓMICA\n")
	for i, st := range cost.Stages {
		fmt.Fprintf(&b, "\n📋 %s:\n", st.Label)
		for _, l := range st.Lines {
			fmt.Fprintf(&b, "• %s: %s\n", l.Label, FormatMoney(l.Amount))
		}
		fmt.Fprintf(&b, "\n📍 SUBTOTAL ETAPA %s: %s\n", roman(i), FormatMoney(st.Subtotal))
	}
	if s.HasConstruction() {
		fmt.Fprintf(&b, "\n📐 TOTAL DISEÑO Y LICENCIAS: %s\n", FormatMoney(cost.DesignTotal))
	}

	fmt.Fprintf(&b, "\n🏆 TOTAL GENERAL: %s\n\n", FormatMoney(cost.Total))
	fmt.Fprintf(&b, "💵 %s\n\n", SpellPesos(cost.Total))
	b.WriteString("✅ Incluye IVA\n\n")

	b.WriteString("💳 FORMA DE PAGO:\n")
	fmt.Fprintf(&b, "• Primer pago (%s): %s\n", percent(p.First), FormatMoney(cost.Payment.First))
	fmt.Fprintf(&b, "• Segundo pago (%s): %s\n", percent(p.Second), FormatMoney(cost.Payment.Second))
	fmt.Fprintf(&b, "• Tercer pago (%s): %s\n\n", percent(p.Third), FormatMoney(cost.Payment.Third))

	b.WriteString("🎯 DESCUENTO ESPECIAL:\n")
	fmt.Fprintf(&b, "Paga el primer %s en %d días y obtén %s de descuento.\n\n",
		percent(p.First), p.DiscountWindowDays, percent(p.EarlyDiscount))
	fmt.Fprintf(&b, "💰 Primer pago con descuento: %s\n", FormatMoney(cost.Payment.DiscountedFirst))
	fmt.Fprintf(&b, "🏆 Total con descuento: %s\n\n", FormatMoney(cost.Payment.DiscountedTotal))

	fmt.Fprintf(&b, "⏱️ DURACIÓN DEL PROYECTO: %d días calendario (%d meses)", s.DurationDays, s.DurationDays/30)
	return b.String()
}

func areaText(a AreaBreakdown) string {
	var b strings.Builder
	b.WriteString("📐 DESGLOSE DE ÁREAS\n\n")
	b.WriteString("🏠 Áreas base:\n")
	for _, base := range a.BaseAreas {
		fmt.Fprintf(&b, "• %s: %s m²\n", base.Label, FormatArea(base.Area))
	}
	fmt.Fprintf(&b, "\n🛏️ Habitación principal (%s): %s m²\n", humanLabel(a.PrincipalBed), FormatArea(a.PrincipalRoom))
	for _, r := range a.AdditionalRooms {
		bath := "sin baño propio"
		if r.BathArea > 0 {
			bath = "con baño propio"
		}
		fmt.Fprintf(&b, "🛏️ Habitación %d (%s, %s): %s m²\n", r.Index, humanLabel(r.Bed), bath, FormatArea(r.Area))
	}
	if len(a.ExtraSpaces) > 0 {
		b.WriteString("\n✨ Espacios adicionales:\n")
		for _, e := range a.ExtraSpaces {
			fmt.Fprintf(&b, "• %s: %s m²\n", e.Label, FormatArea(e.Area))
		}
	}
	fmt.Fprintf(&b, "\n📏 ÁREA TOTAL: %s m²\n", FormatArea(a.Total))
	return b.String()
}
