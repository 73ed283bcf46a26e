package scanning

import (
	"context"
	"encoding/json"
	"time"
)

// requestTimeout bounds a single provider round trip. Vision-free text
// extraction is fast; a minute covers slow models with headroom.
const requestTimeout = 60 * time.Second

// maxResponseTokens caps the generated output. The expected response is a
// four-key JSON object, so this is generous.
const maxResponseTokens = 1024

// Client issues one structured-extraction call to an LLM provider.
type Client interface {
	// Name returns the human-readable provider label stamped into
	// UsageMetrics.
	Name() string

	// Call sends the extracted receipt text to the provider and decodes the
	// model's reply into a ParseOutcome.
	Call(ctx context.Context, extractedText, credential string) (*ParseOutcome, error)
}

// providerErrorBody is the {"error": {"message": ...}} shape both HTTP
// providers use for non-2xx replies.
type providerErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// decodeAPIError turns a failed provider response into an APIError, surfacing
// the provider's own message when the body carries one.
func decodeAPIError(provider string, status int, body []byte) *APIError {
	var parsed providerErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return newAPIError(provider, status, parsed.Error.Message)
	}
	return newAPIError(provider, status, "")
}
