package quote

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Quoter binds a pricing scheme and a catalog and runs the full
// area -> cost -> record chain. It holds no mutable state and is safe for
// concurrent use.
type Quoter struct {
	scheme  PricingScheme
	catalog *Catalog
	now     func() time.Time
	newID   func() string
}

type QuoterOption func(*Quoter)

// WithClock replaces the wall clock used for the submission date.
func WithClock(now func() time.Time) QuoterOption {
	return func(q *Quoter) { q.now = now }
}

func WithIDGenerator(f func() string) QuoterOption {
	return func(q *Quoter) { q.newID = f }
}

func NewQuoter(scheme PricingScheme, catalog *Catalog, opts ...QuoterOption) (*Quoter, error) {
	if err := scheme.Validate(); err != nil {
		return nil, fmt.Errorf("pricing scheme: %w", err)
	}
	if catalog == nil {
		return nil, fmt.Errorf("nil catalog")
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	q := &Quoter{
		scheme:  scheme,
		catalog: catalog,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

func (q *Quoter) Scheme() PricingScheme { return q.scheme }

func (q *Quoter) Catalog() *Catalog { return q.catalog }

// Quote computes the area and cost for the answers and formats the record.
// Missing or unknown answers yield an error matching ErrInvalidInput and
// no partial record.
func (q *Quoter) Quote(contact Contact, r Responses, additionalRooms int) (*Record, error) {
	area, err := ComputeAreaBreakdown(q.catalog, q.scheme.BaseAreas, r, additionalRooms)
	if err != nil {
		return nil, fmt.Errorf("compute area: %w", err)
	}
	cost, err := ComputeCostBreakdown(q.scheme, area.Total)
	if err != nil {
		return nil, fmt.Errorf("compute cost: %w", err)
	}
	rec := FormatQuotation(q.scheme, contact, area, cost, q.now())
	rec.ID = q.newID()
	rec.Payload.Reference = rec.ID
	return &rec, nil
}
