package numbering

import (
	"context"
	"fmt"
	"time"
)

// Service combines atomic counter allocation with number formatting.
type Service struct {
	counters CounterStore
}

// NewService constructs the numbering service.
func NewService(counters CounterStore) *Service {
	return &Service{counters: counters}
}

// Allocate reserves the next sequence for docType in at's calendar year and
// returns the formatted document number. Allocation is never rolled back:
// a number handed out stays consumed even if the caller discards it.
func (s *Service) Allocate(ctx context.Context, docType, companyInitials string, at time.Time) (string, error) {
	if !Known(docType) {
		return "", fmt.Errorf("numbering: unknown document type %q", docType)
	}
	seq, err := s.counters.Next(ctx, docType, at.Year())
	if err != nil {
		return "", err
	}
	return Format(seq, companyInitials, docType, at), nil
}

// Peek returns the current counter positions for the given year without
// advancing them.
func (s *Service) Peek(ctx context.Context, year int) (map[string]int64, error) {
	return s.counters.Snapshot(ctx, year)
}
