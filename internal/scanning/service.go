package scanning

import (
	"context"
	"fmt"
	"log/slog"
)

// Provider IDs double as credential vault keys.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// CredentialReader is the subset of the credential vault the orchestrator
// needs. The scanning pipeline only ever reads credentials; writes happen
// through the separate management surface.
type CredentialReader interface {
	// Exists reports whether a credential is stored for the provider
	Exists(providerID string) (bool, error)

	// Get retrieves a credential, reporting whether one was stored
	Get(providerID string) (string, bool, error)
}

// Provider pairs a vault lookup key with the client that can spend the
// credential stored under it.
type Provider struct {
	ID     string
	Client Client
}

// Service selects a provider and runs one structured-extraction call. The
// provider list is ordered: the first provider with a configured credential is
// chosen, and its failure is terminal for the scan. There is no fallback from
// a configured-but-failing provider, and no retry.
type Service struct {
	credentials CredentialReader
	providers   []Provider
}

// NewService creates a new Service with the given provider preference order
func NewService(credentials CredentialReader, providers ...Provider) *Service {
	return &Service{
		credentials: credentials,
		providers:   providers,
	}
}

// ParseFuelReceipt sends extracted receipt text to the first configured
// provider and returns its outcome. Fails with ErrNoCredential when no
// provider has a credential stored.
func (s *Service) ParseFuelReceipt(ctx context.Context, extractedText string) (*ParseOutcome, error) {
	for _, p := range s.providers {
		ok, err := s.credentials.Exists(p.ID)
		if err != nil {
			return nil, fmt.Errorf("checking %s credential: %w", p.ID, err)
		}
		if !ok {
			continue
		}

		credential, found, err := s.credentials.Get(p.ID)
		if err != nil {
			return nil, fmt.Errorf("reading %s credential: %w", p.ID, err)
		}
		if !found {
			continue
		}

		slog.Info("Parsing receipt text", "provider", p.Client.Name())
		return p.Client.Call(ctx, extractedText, credential)
	}

	return nil, ErrNoCredential
}

// HasAnyCredential reports whether at least one provider has a credential
// configured. Lookup errors count as not configured.
func (s *Service) HasAnyCredential() bool {
	for _, p := range s.providers {
		ok, err := s.credentials.Exists(p.ID)
		if err != nil {
			slog.Warn("Failed to check credential", "provider", p.ID, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
