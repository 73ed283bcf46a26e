package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockCredentials is a mock implementation of CredentialReader
type mockCredentials struct {
	keys      map[string]string
	existsErr error
	getErr    error
}

func newMockCredentials() *mockCredentials {
	return &mockCredentials{keys: make(map[string]string)}
}

func (m *mockCredentials) Exists(providerID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.keys[providerID]
	return ok, nil
}

func (m *mockCredentials) Get(providerID string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.keys[providerID]
	return value, ok, nil
}

// mockClient is a mock implementation of Client that records its calls
type mockClient struct {
	name       string
	outcome    *ParseOutcome
	callErr    error
	calls      int
	credential string
	text       string
}

func (m *mockClient) Name() string {
	return m.name
}

func (m *mockClient) Call(ctx context.Context, extractedText, credential string) (*ParseOutcome, error) {
	m.calls++
	m.text = extractedText
	m.credential = credential
	if m.callErr != nil {
		return nil, m.callErr
	}
	return m.outcome, nil
}

var _ = Describe("Service", func() {
	var (
		credentials *mockCredentials
		clientA     *mockClient
		clientB     *mockClient
		service     *Service
		outcome     *ParseOutcome
		err         error
	)

	BeforeEach(func() {
		credentials = newMockCredentials()
		gallons := 12.45
		clientA = &mockClient{
			name:    "Anthropic",
			outcome: &ParseOutcome{Fields: &ReceiptFields{Gallons: &gallons}, Usage: UsageMetrics{Provider: "Anthropic"}},
		}
		clientB = &mockClient{
			name:    "OpenAI",
			outcome: &ParseOutcome{Fields: &ReceiptFields{Gallons: &gallons}, Usage: UsageMetrics{Provider: "OpenAI"}},
		}
		service = NewService(credentials,
			Provider{ID: ProviderAnthropic, Client: clientA},
			Provider{ID: ProviderOpenAI, Client: clientB},
		)
	})

	Describe("ParseFuelReceipt", func() {
		JustBeforeEach(func() {
			outcome, err = service.ParseFuelReceipt(context.Background(), "extracted text")
		})

		When("only the first provider is configured", func() {
			BeforeEach(func() {
				credentials.keys[ProviderAnthropic] = "key-a"
			})

			It("invokes the first provider and never the second", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(clientA.calls).To(Equal(1))
				Expect(clientB.calls).To(BeZero())
			})

			It("passes the credential and text through", func() {
				Expect(clientA.credential).To(Equal("key-a"))
				Expect(clientA.text).To(Equal("extracted text"))
			})

			It("returns the provider's outcome", func() {
				Expect(outcome.Usage.Provider).To(Equal("Anthropic"))
			})
		})

		When("only the second provider is configured", func() {
			BeforeEach(func() {
				credentials.keys[ProviderOpenAI] = "key-b"
			})

			It("invokes the second provider", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(clientA.calls).To(BeZero())
				Expect(clientB.calls).To(Equal(1))
				Expect(outcome.Usage.Provider).To(Equal("OpenAI"))
			})
		})

		When("both providers are configured", func() {
			BeforeEach(func() {
				credentials.keys[ProviderAnthropic] = "key-a"
				credentials.keys[ProviderOpenAI] = "key-b"
			})

			It("invokes only the first provider", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(clientA.calls).To(Equal(1))
				Expect(clientB.calls).To(BeZero())
			})
		})

		When("no provider is configured", func() {
			It("fails with the no-credential error without any call", func() {
				Expect(err).To(MatchError(ErrNoCredential))
				Expect(clientA.calls).To(BeZero())
				Expect(clientB.calls).To(BeZero())
			})
		})

		When("the first provider is configured but its call fails", func() {
			BeforeEach(func() {
				credentials.keys[ProviderAnthropic] = "key-a"
				credentials.keys[ProviderOpenAI] = "key-b"
				clientA.callErr = &APIError{Provider: "Anthropic", Status: 401, Message: "invalid api key"}
			})

			It("propagates the failure and does not fall back", func() {
				var apiErr *APIError
				Expect(errors.As(err, &apiErr)).To(BeTrue())
				Expect(apiErr.Message).To(Equal("invalid api key"))
				Expect(clientB.calls).To(BeZero())
			})
		})

		When("the credential check itself fails", func() {
			BeforeEach(func() {
				credentials.existsErr = errors.New("vault unavailable")
			})

			It("returns the wrapped vault error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("vault unavailable"))
			})
		})
	})

	Describe("HasAnyCredential", func() {
		When("no provider is configured", func() {
			It("is false", func() {
				Expect(service.HasAnyCredential()).To(BeFalse())
			})
		})

		When("any provider is configured", func() {
			BeforeEach(func() {
				credentials.keys[ProviderOpenAI] = "key-b"
			})

			It("is true", func() {
				Expect(service.HasAnyCredential()).To(BeTrue())
			})
		})

		When("the vault lookup fails", func() {
			BeforeEach(func() {
				credentials.existsErr = errors.New("vault unavailable")
			})

			It("treats the provider as not configured", func() {
				Expect(service.HasAnyCredential()).To(BeFalse())
			})
		})
	})
})
