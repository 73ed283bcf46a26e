package stats

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/lwshanbd/fuel-tracker/internal/scanning"
)

// FillUp is one recorded fill-up, normalized from scan prefill data. Missing
// values are derived from the other two when possible, otherwise left zero.
type FillUp struct {
	Gallons        decimal.Decimal `json:"gallons"`
	PricePerGallon decimal.Decimal `json:"price_per_gallon"`
	TotalCost      decimal.Decimal `json:"total_cost"`
}

// Summary aggregates the fill-ups recorded in this session
type Summary struct {
	Count                 int             `json:"count"`
	TotalGallons          decimal.Decimal `json:"total_gallons"`
	TotalSpend            decimal.Decimal `json:"total_spend"`
	AveragePricePerGallon decimal.Decimal `json:"average_price_per_gallon"`
}

// Tracker accumulates fill-ups in memory. Nothing here is persisted; the
// tracker only serves session-level derived metrics.
type Tracker struct {
	mu      sync.Mutex
	fillUps []FillUp
}

// NewTracker creates an empty Tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// newFillUp converts prefill data to decimals, deriving whichever of the
// three values is missing from the other two.
func newFillUp(p *scanning.PrefillData) FillUp {
	var f FillUp
	if p.Gallons != nil {
		f.Gallons = decimal.NewFromFloat(*p.Gallons)
	}
	if p.PricePerGallon != nil {
		f.PricePerGallon = decimal.NewFromFloat(*p.PricePerGallon)
	}
	if p.TotalCost != nil {
		f.TotalCost = decimal.NewFromFloat(*p.TotalCost)
	}

	switch {
	case p.TotalCost == nil && p.Gallons != nil && p.PricePerGallon != nil:
		f.TotalCost = f.Gallons.Mul(f.PricePerGallon).Round(2)
	case p.Gallons == nil && p.TotalCost != nil && p.PricePerGallon != nil && !f.PricePerGallon.IsZero():
		f.Gallons = f.TotalCost.Div(f.PricePerGallon).Round(3)
	case p.PricePerGallon == nil && p.TotalCost != nil && p.Gallons != nil && !f.Gallons.IsZero():
		f.PricePerGallon = f.TotalCost.Div(f.Gallons).Round(3)
	}

	return f
}

// Add records a completed scan's prefill data
func (t *Tracker) Add(p *scanning.PrefillData) FillUp {
	f := newFillUp(p)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.fillUps = append(t.fillUps, f)
	return f
}

// Summary computes the session aggregates
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{Count: len(t.fillUps)}
	for _, f := range t.fillUps {
		s.TotalGallons = s.TotalGallons.Add(f.Gallons)
		s.TotalSpend = s.TotalSpend.Add(f.TotalCost)
	}
	if !s.TotalGallons.IsZero() {
		s.AveragePricePerGallon = s.TotalSpend.Div(s.TotalGallons).Round(3)
	}
	return s
}
