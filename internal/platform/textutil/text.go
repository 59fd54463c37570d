package textutil

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxPhoneDigits = 10

// NormalizeText applies NFKC normalisation and trims surrounding whitespace.
func NormalizeText(value string) string {
	return strings.TrimSpace(norm.NFKC.String(value))
}

// OptionalString returns nil for blank input and a pointer to the normalised value otherwise.
func OptionalString(value string) *string {
	normalized := NormalizeText(value)
	if normalized == "" {
		return nil
	}
	return &normalized
}

// IntOrNil reduces free text such as "10,000" to an integer. Blank or non-numeric input yields nil.
func IntOrNil(value string) *int {
	cleaned := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	truncated := math.Trunc(parsed)
	if truncated > math.MaxInt32 || truncated < math.MinInt32 {
		return nil
	}
	result := int(truncated)
	return &result
}

// FormatPhone masks up to ten digits as (DDD) DDD-DDDD, formatting progressively as digits arrive.
func FormatPhone(input string) string {
	digits := make([]byte, 0, maxPhoneDigits)
	for i := 0; i < len(input) && len(digits) < maxPhoneDigits; i++ {
		if c := input[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	d := string(digits)
	switch {
	case len(d) > 6:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	case len(d) > 3:
		return "(" + d[:3] + ") " + d[3:]
	default:
		return d
	}
}
