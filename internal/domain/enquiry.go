package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// EnquiryPrefix starts every generated enquiry number.
const EnquiryPrefix = "ENQ"

// enquirySequenceWidth is the minimum zero-padded width of the sequence part.
const enquirySequenceWidth = 5

// EnquiryYearPrefix returns the per-year prefix, e.g. "ENQ26" for 2026.
func EnquiryYearPrefix(year int) string {
	return fmt.Sprintf("%s%02d", EnquiryPrefix, year%100)
}

// FormatEnquiryNumber renders prefix plus a zero-padded sequence. Sequences
// beyond the padded width widen naturally.
func FormatEnquiryNumber(prefix string, sequence int64) string {
	return fmt.Sprintf("%s%0*d", prefix, enquirySequenceWidth, sequence)
}

// ParseEnquirySequence extracts the numeric suffix of an enquiry number
// carrying the given year prefix.
func ParseEnquirySequence(number, prefix string) (int64, error) {
	suffix := strings.TrimPrefix(number, prefix)
	if suffix == number || suffix == "" {
		return 0, fmt.Errorf("enquiry number %q does not match prefix %q", number, prefix)
	}
	sequence, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("enquiry number %q has non-numeric sequence: %w", number, err)
	}
	return sequence, nil
}
