package quote

import (
	"math"

	"github.com/dustin/go-humanize"
)

// es-CO grouping: "." for thousands, "," for decimals. Peso amounts are
// shown without cents.
const (
	amountFormat = "#.###,"
	areaFormat   = "#.###,##"
)

// FormatAmount renders a peso amount rounded to the unit, e.g. "15.916.371".
func FormatAmount(v float64) string {
	return humanize.FormatFloat(amountFormat, math.Round(v))
}

// FormatMoney prefixes FormatAmount with the currency sign.
func FormatMoney(v float64) string {
	return "$" + FormatAmount(v)
}

// FormatArea renders square meters with two decimals, e.g. "88,50".
func FormatArea(v float64) string {
	return humanize.FormatFloat(areaFormat, v)
}
