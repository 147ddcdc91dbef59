package leadimport

import (
	"context"
	"fmt"
	"time"

	"github.com/admitra/leadflow/internal/domain"
	"github.com/admitra/leadflow/internal/repository"
)

// EnquiryNumberGenerator allocates year-scoped, monotonically increasing
// enquiry numbers. The counter is seeded from storage once at job start and
// then advances purely in memory, which is safe only while at most one
// import job runs at a time; raising worker concurrency above one requires
// moving allocation to a database-backed atomic counter.
type EnquiryNumberGenerator struct {
	prefix string
	next   int64
}

// NewEnquiryNumberGenerator resumes the sequence after the highest existing
// enquiry number for the current year, or starts at 1.
func NewEnquiryNumberGenerator(ctx context.Context, leads repository.LeadRepository, now time.Time) (*EnquiryNumberGenerator, error) {
	prefix := domain.EnquiryYearPrefix(now.Year())
	last, err := leads.MaxEnquirySequence(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to seed enquiry sequence: %w", err)
	}
	return &EnquiryNumberGenerator{prefix: prefix, next: last + 1}, nil
}

// Next returns the next enquiry number, e.g. "ENQ2600042".
func (g *EnquiryNumberGenerator) Next() string {
	number := domain.FormatEnquiryNumber(g.prefix, g.next)
	g.next++
	return number
}
