package scanning

// ReceiptFields contains the structured values extracted from a fuel receipt.
// Pointer fields distinguish "the model said null" from "the model said zero".
type ReceiptFields struct {
	Gallons        *float64 `json:"gallons"`
	PricePerGallon *float64 `json:"pricePerGallon"`
	TotalCost      *float64 `json:"totalCost"`
	Date           *string  `json:"date"` // YYYY-MM-DD when present
}

// Valid reports whether the extraction is usable. A record with neither a
// gallon count nor a total cost tells us nothing about the fill-up, even if
// the JSON itself decoded cleanly.
func (r *ReceiptFields) Valid() bool {
	return r.Gallons != nil || r.TotalCost != nil
}

// UsageMetrics records token accounting for a single provider call.
type UsageMetrics struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Provider     string `json:"provider"`
}

// TotalTokens returns the combined input and output token count.
func (u UsageMetrics) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// ParseOutcome pairs the extracted fields with the usage metrics of the call
// that produced them.
type ParseOutcome struct {
	Fields *ReceiptFields `json:"fields"`
	Usage  UsageMetrics   `json:"usage"`
}

// PrefillData is the subset of ReceiptFields handed to the caller once a scan
// completes. The date is dropped at this boundary; nothing downstream consumes
// it.
type PrefillData struct {
	Gallons        *float64 `json:"gallons"`
	PricePerGallon *float64 `json:"price_per_gallon"`
	TotalCost      *float64 `json:"total_cost"`
}

// Prefill narrows an outcome's fields to the prefill shape.
func (o *ParseOutcome) Prefill() *PrefillData {
	return &PrefillData{
		Gallons:        o.Fields.Gallons,
		PricePerGallon: o.Fields.PricePerGallon,
		TotalCost:      o.Fields.TotalCost,
	}
}
