package report

import (
	"math"
	"strconv"
	"strings"
)

const precision = 6

// formatFlux rounds v to six decimals. NaN is shown as "-".
func formatFlux(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	scale := math.Pow(10, precision)
	v = math.Round(v*scale) / scale
	// drop the sign of -0
	if v == 0 {
		v = 0
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// roundNumbers rounds every number of a whitespace separated text, other tokens are kept.
func roundNumbers(s string) string {
	tokens := strings.Fields(s)
	for i, token := range tokens {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		tokens[i] = formatFlux(v)
	}

	return strings.Join(tokens, " ")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// nameID renders "name (id)", or the id alone when the name is missing or equal to the id.
func nameID(name, id string) string {
	if name == "" || name == id {
		return id
	}

	return name + " (" + id + ")"
}
