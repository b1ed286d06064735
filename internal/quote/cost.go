package quote

import "math"

type LineCost struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

type StageCost struct {
	Key          string     `json:"key"`
	Label        string     `json:"label"`
	Construction bool       `json:"construction,omitempty"`
	Lines        []LineCost `json:"lines"`
	Subtotal     float64    `json:"subtotal"`
}

// PaymentSchedule splits the grand total into three installments and the
// early-payment variant of the first one.
type PaymentSchedule struct {
	First           float64 `json:"first"`
	Second          float64 `json:"second"`
	Third           float64 `json:"third"`
	DiscountedFirst float64 `json:"discounted_first"`
	DiscountedTotal float64 `json:"discounted_total"`
}

type CostBreakdown struct {
	Area              float64         `json:"area"`
	Stages            []StageCost     `json:"stages"`
	DesignTotal       float64         `json:"design_total"`
	ConstructionTotal float64         `json:"construction_total"`
	Total             float64         `json:"total"`
	Payment           PaymentSchedule `json:"payment"`
}

// ComputeCostBreakdown prices totalArea against every stage of the scheme.
// No intermediate rounding is applied.
func ComputeCostBreakdown(s PricingScheme, totalArea float64) (CostBreakdown, error) {
	if math.IsNaN(totalArea) || math.IsInf(totalArea, 0) {
		return CostBreakdown{}, invalid("area_total", "not a finite number")
	}
	if totalArea < 0 {
		return CostBreakdown{}, invalid("area_total", "negative area %v", totalArea)
	}

	out := CostBreakdown{
		Area:   totalArea,
		Stages: make([]StageCost, 0, len(s.Stages)),
	}
	for _, st := range s.Stages {
		sc := StageCost{
			Key:          st.Key,
			Label:        st.Label,
			Construction: st.Construction,
			Lines:        make([]LineCost, 0, len(st.Categories)),
		}
		for _, c := range st.Categories {
			amount := totalArea * c.Rate
			sc.Lines = append(sc.Lines, LineCost{Key: c.Key, Label: c.Label, Rate: c.Rate, Amount: amount})
			sc.Subtotal += amount
		}
		if st.Construction {
			out.ConstructionTotal += sc.Subtotal
		} else {
			out.DesignTotal += sc.Subtotal
		}
		out.Stages = append(out.Stages, sc)
	}
	out.Total = out.DesignTotal + out.ConstructionTotal

	p := s.Payment
	out.Payment = PaymentSchedule{
		First:  out.Total * p.First,
		Second: out.Total * p.Second,
		Third:  out.Total * p.Third,
	}
	out.Payment.DiscountedFirst = out.Payment.First * (1 - p.EarlyDiscount)
	out.Payment.DiscountedTotal = out.Total * (1 - p.EarlyDiscount)

	return out, nil
}

// Amount returns the priced amount of a category, if the scheme bills it.
func (c CostBreakdown) Amount(category string) (float64, bool) {
	for _, st := range c.Stages {
		for _, l := range st.Lines {
			if l.Key == category {
				return l.Amount, true
			}
		}
	}
	return 0, false
}

func (c CostBreakdown) Stage(key string) (StageCost, bool) {
	for _, st := range c.Stages {
		if st.Key == key {
			return st, true
		}
	}
	return StageCost{}, false
}
