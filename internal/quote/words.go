package quote

import (
	"math"
	"strings"
)

var (
	unitWords = [...]string{"", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve"}
	teenWords = [...]string{"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete", "dieciocho", "diecinueve"}
	tenWords  = [...]string{"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa"}
)

var twentyWords = [...]string{
	"veinte", "veintiuno", "veintidós", "veintitrés", "veinticuatro",
	"veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
}

var hundredWords = [...]string{
	"", "ciento", "doscientos", "trescientos", "cuatrocientos",
	"quinientos", "seiscientos", "setecientos", "ochocientos", "novecientos",
}

// below100 spells 1..99. With apocope a trailing "uno" becomes "un", as it
// does before a noun ("veintiún mil", "un peso").
func below100(n int64, apocope bool) string {
	switch {
	case n < 10:
		if n == 1 && apocope {
			return "un"
		}
		return unitWords[n]
	case n < 20:
		return teenWords[n-10]
	case n < 30:
		if n == 21 && apocope {
			return "veintiún"
		}
		return twentyWords[n-20]
	default:
		t, u := n/10, n%10
		if u == 0 {
			return tenWords[t]
		}
		return tenWords[t] + " y " + below100(u, apocope)
	}
}

func below1000(n int64, apocope bool) string {
	if n == 100 {
		return "cien"
	}
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundredWords[h])
	}
	if r := n % 100; r > 0 {
		parts = append(parts, below100(r, apocope))
	}
	return strings.Join(parts, " ")
}

// below1e6 spells 1..999999.
func below1e6(n int64, apocope bool) string {
	var parts []string
	if th := n / 1000; th > 0 {
		if th == 1 {
			parts = append(parts, "mil")
		} else {
			parts = append(parts, below1000(th, true)+" mil")
		}
	}
	if r := n % 1000; r > 0 {
		parts = append(parts, below1000(r, apocope))
	}
	return strings.Join(parts, " ")
}

// SpellNumber spells a non-negative integer in Spanish using the long scale
// ("mil millones" for 10^9). apocope shortens a trailing "uno" so the result
// can precede a noun.
func SpellNumber(n int64, apocope bool) string {
	if n <= 0 {
		return "cero"
	}
	var parts []string
	if m := n / 1_000_000; m > 0 {
		if m == 1 {
			parts = append(parts, "un millón")
		} else {
			parts = append(parts, below1e6(m, true)+" millones")
		}
	}
	if r := n % 1_000_000; r > 0 {
		parts = append(parts, below1e6(r, apocope))
	}
	return strings.Join(parts, " ")
}

// SpellPesos renders a peso amount as the uppercase legal wording used on
// Colombian quotations, e.g. "DOS MILLONES DE PESOS M/CTE".
func SpellPesos(amount float64) string {
	n := int64(math.Round(amount))
	if n < 0 {
		n = 0
	}
	var b strings.Builder
	b.WriteString(SpellNumber(n, true))
	switch {
	case n == 1:
		b.WriteString(" peso")
	case n >= 1_000_000 && n%1_000_000 == 0:
		b.WriteString(" de pesos")
	default:
		b.WriteString(" pesos")
	}
	b.WriteString(" m/cte")
	return strings.ToUpper(b.String())
}
