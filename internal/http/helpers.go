package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"debts/internal/core"
	"debts/internal/middleware/trace"
)

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"money": formatMoney,
	"date":  formatDate,
}

// formatMoney renders an amount with two decimals. Stored values stay
// float64; only the display is rounded.
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatDate(d core.Date) string {
	return d.String()
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
