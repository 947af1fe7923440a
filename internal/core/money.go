// Package core provides amount parsing utilities.
//
// Amounts are plain float64 values. There is no currency handling and no
// rounding on storage; formatting for display happens in the http package.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user input to a float64 amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Sign is
// not validated: a negative charge is stored as submitted.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
