package quote

import (
	"fmt"
	"math"
)

// Cost category identifiers. They double as keys of the structured payload
// lookups, so they must stay stable.
const (
	CategoryArchitectural = "diseno_arquitectonico"
	CategoryStructural    = "diseno_estructural"
	CategoryElectrical    = "diseno_electrico"
	CategoryHydraulic     = "diseno_hidraulico"
	CategoryBudgeting     = "presupuesto_obra"
	CategoryLicensing     = "acompanamiento"
	CategoryConstruction  = "construccion"
)

const (
	SchemeDesign             = "diseno"
	SchemeDesignConstruction = "diseno_construccion"

	// DefaultConstructionRate is COP per m² for the construction stage.
	DefaultConstructionRate = 2_200_000
)

// Category is a single rated line of a stage.
type Category struct {
	Key   string
	Label string
	Rate  float64 // currency per m²
}

// Stage groups categories that are billed together.
type Stage struct {
	Key          string
	Label        string
	Construction bool
	Categories   []Category
}

// BaseArea is a room every project gets regardless of the answers.
type BaseArea struct {
	Key   string
	Label string
	Area  float64
}

type PaymentTerms struct {
	First              float64
	Second             float64
	Third              float64
	EarlyDiscount      float64
	DiscountWindowDays int
}

// PricingScheme is the full, immutable pricing configuration a quotation is
// computed against.
type PricingScheme struct {
	Name         string
	Stages       []Stage
	BaseAreas    []BaseArea
	Payment      PaymentTerms
	DurationDays int
}

func designStages() []Stage {
	return []Stage{
		{
			Key:   "etapa_1",
			Label: "Etapa 1 - Diseño y Licencias",
			Categories: []Category{
				{Key: CategoryArchitectural, Label: "Diseño Arquitectónico", Rate: 65141},
				{Key: CategoryStructural, Label: "Diseño Estructural", Rate: 33987},
				{Key: CategoryLicensing, Label: "Acompañamiento Licencias", Rate: 14161},
			},
		},
		{
			Key:   "etapa_2",
			Label: "Etapa 2 - Instalaciones y Presupuesto",
			Categories: []Category{
				{Key: CategoryElectrical, Label: "Diseño Eléctrico", Rate: 28322},
				{Key: CategoryHydraulic, Label: "Diseño Hidráulico", Rate: 25490},
				{Key: CategoryBudgeting, Label: "Presupuesto del Proyecto", Rate: 12745},
			},
		},
	}
}

func defaultBaseAreas() []BaseArea {
	return []BaseArea{
		{Key: "cocina", Label: "Cocina", Area: 11.5},
		{Key: "sala", Label: "Sala", Area: 13.5},
		{Key: "comedor", Label: "Comedor", Area: 18},
		{Key: "ropas", Label: "Zona de ropas", Area: 8},
		{Key: "bano_social", Label: "Baño social", Area: 2.5},
	}
}

func defaultPaymentTerms() PaymentTerms {
	return PaymentTerms{
		First:              0.40,
		Second:             0.50,
		Third:              0.10,
		EarlyDiscount:      0.10,
		DiscountWindowDays: 30,
	}
}

// DesignScheme prices design and licensing only (stages 1 and 2).
func DesignScheme() PricingScheme {
	return PricingScheme{
		Name:         SchemeDesign,
		Stages:       designStages(),
		BaseAreas:    defaultBaseAreas(),
		Payment:      defaultPaymentTerms(),
		DurationDays: 120,
	}
}

// DesignConstructionScheme adds a construction stage on top of DesignScheme.
func DesignConstructionScheme(constructionRate float64) PricingScheme {
	s := DesignScheme()
	s.Name = SchemeDesignConstruction
	s.Stages = append(s.Stages, Stage{
		Key:          "etapa_3",
		Label:        "Etapa 3 - Construcción",
		Construction: true,
		Categories: []Category{
			{Key: CategoryConstruction, Label: "Construcción", Rate: constructionRate},
		},
	})
	return s
}

// SchemeByName resolves a configured scheme name.
func SchemeByName(name string, constructionRate float64) (PricingScheme, error) {
	var s PricingScheme
	switch name {
	case SchemeDesign, "":
		s = DesignScheme()
	case SchemeDesignConstruction:
		s = DesignConstructionScheme(constructionRate)
	default:
		return PricingScheme{}, fmt.Errorf("unknown pricing scheme %q", name)
	}
	if err := s.Validate(); err != nil {
		return PricingScheme{}, err
	}
	return s, nil
}

func (s PricingScheme) Validate() error {
	if len(s.Stages) == 0 {
		return fmt.Errorf("scheme %s: no stages", s.Name)
	}
	for _, st := range s.Stages {
		for _, c := range st.Categories {
			if c.Rate < 0 || math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
				return fmt.Errorf("scheme %s: invalid rate for %s: %v", s.Name, c.Key, c.Rate)
			}
		}
	}
	for _, b := range s.BaseAreas {
		if b.Area < 0 {
			return fmt.Errorf("scheme %s: negative base area %s", s.Name, b.Key)
		}
	}
	p := s.Payment
	if math.Abs(p.First+p.Second+p.Third-1) > 1e-9 {
		return fmt.Errorf("scheme %s: payment split must sum to 1, got %v", s.Name, p.First+p.Second+p.Third)
	}
	if p.EarlyDiscount < 0 || p.EarlyDiscount >= 1 {
		return fmt.Errorf("scheme %s: invalid early discount %v", s.Name, p.EarlyDiscount)
	}
	return nil
}

// HasConstruction reports whether the scheme bills a construction stage.
func (s PricingScheme) HasConstruction() bool {
	for _, st := range s.Stages {
		if st.Construction {
			return true
		}
	}
	return false
}
