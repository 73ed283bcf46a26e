package scanning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Anthropic", func() {
	var (
		server  *ghttp.Server
		client  *Anthropic
		outcome *ParseOutcome
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client = NewAnthropic(server.URL(), "claude-test")
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		outcome, err = client.Call(context.Background(), "SHELL 12.450 GAL @ 3.459 TOTAL 43.06", "test-key")
	})

	When("the provider replies with a well-formed response", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/v1/messages"),
				ghttp.VerifyHeaderKV("x-api-key", "test-key"),
				ghttp.VerifyHeaderKV("anthropic-version", "2023-06-01"),
				func(w http.ResponseWriter, r *http.Request) {
					var req anthropicRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Model).To(Equal("claude-test"))
					Expect(req.MaxTokens).To(Equal(maxResponseTokens))
					Expect(req.Messages).To(HaveLen(1))
					Expect(req.Messages[0].Role).To(Equal("user"))
					Expect(req.Messages[0].Content).To(ContainSubstring("SHELL 12.450 GAL"))
				},
				ghttp.RespondWith(http.StatusOK, `{
					"content": [{"type": "text", "text": "{\"gallons\": 12.45, \"pricePerGallon\": 3.459, \"totalCost\": 43.06, \"date\": null}"}],
					"usage": {"input_tokens": 210, "output_tokens": 38}
				}`),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the receipt fields", func() {
			Expect(outcome.Fields.Gallons).To(HaveValue(Equal(12.45)))
			Expect(outcome.Fields.PricePerGallon).To(HaveValue(Equal(3.459)))
			Expect(outcome.Fields.TotalCost).To(HaveValue(Equal(43.06)))
			Expect(outcome.Fields.Date).To(BeNil())
		})

		It("should extract the usage counters", func() {
			Expect(outcome.Usage.InputTokens).To(Equal(210))
			Expect(outcome.Usage.OutputTokens).To(Equal(38))
			Expect(outcome.Usage.Provider).To(Equal("Anthropic"))
		})
	})

	When("the provider replies 401 with a nested error message", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`))
		})

		It("surfaces the provider's message as an APIError", func() {
			var apiErr *APIError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Message).To(Equal("invalid api key"))
			Expect(apiErr.Status).To(Equal(http.StatusUnauthorized))
			Expect(apiErr.Provider).To(Equal("Anthropic"))
		})
	})

	When("the provider replies non-2xx without a decodable error body", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, `boom`))
		})

		It("falls back to the HTTP status", func() {
			var apiErr *APIError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Message).To(Equal("HTTP 500"))
		})
	})

	When("the provider replies 2xx without content", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`))
		})

		It("returns an invalid-response error", func() {
			Expect(err).To(MatchError(ErrInvalidResponse))
		})
	})

	When("the response omits the usage block", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{
				"content": [{"type": "text", "text": "{\"gallons\": 1.0, \"pricePerGallon\": null, \"totalCost\": null, \"date\": null}"}]
			}`))
		})

		It("defaults the counters to zero", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Usage.InputTokens).To(BeZero())
			Expect(outcome.Usage.OutputTokens).To(BeZero())
		})
	})

	When("the model wraps the JSON in a markdown fence", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{
				"content": [{"type": "text", "text": "Here you go:\n`+"```json"+`\n{\"gallons\": 12.45, \"pricePerGallon\": 3.459, \"totalCost\": 43.06, \"date\": null}\n`+"```"+`"}],
				"usage": {"input_tokens": 210, "output_tokens": 52}
			}`))
		})

		It("still recovers the fields", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Fields.Gallons).To(HaveValue(Equal(12.45)))
		})
	})

	When("the model produces undecodable text", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{
				"content": [{"type": "text", "text": "I could not read the receipt."}],
				"usage": {"input_tokens": 210, "output_tokens": 9}
			}`))
		})

		It("propagates the parse error", func() {
			var parseErr *ParseError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &parseErr)).To(BeTrue())
		})
	})
})

var _ = Describe("OpenAI", func() {
	var (
		server  *ghttp.Server
		client  *OpenAI
		outcome *ParseOutcome
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client = NewOpenAI(server.URL(), "gpt-test")
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		outcome, err = client.Call(context.Background(), "CHEVRON 9.876 GAL TOTAL 39.99", "test-key")
	})

	When("the provider replies with a well-formed response", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				func(w http.ResponseWriter, r *http.Request) {
					var req openAIRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Model).To(Equal("gpt-test"))
					Expect(req.Temperature).To(BeZero())
					Expect(req.MaxTokens).To(Equal(maxResponseTokens))
					Expect(req.Messages).To(HaveLen(1))
					Expect(req.Messages[0].Content).To(ContainSubstring("CHEVRON 9.876 GAL"))
				},
				ghttp.RespondWith(http.StatusOK, `{
					"choices": [{"message": {"role": "assistant", "content": "{\"gallons\": 9.876, \"pricePerGallon\": 4.049, \"totalCost\": 39.99, \"date\": \"2024-05-12\"}"}}],
					"usage": {"prompt_tokens": 198, "completion_tokens": 41}
				}`),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the receipt fields", func() {
			Expect(outcome.Fields.Gallons).To(HaveValue(Equal(9.876)))
			Expect(outcome.Fields.Date).To(HaveValue(Equal("2024-05-12")))
		})

		It("should map the prompt/completion usage terminology", func() {
			Expect(outcome.Usage.InputTokens).To(Equal(198))
			Expect(outcome.Usage.OutputTokens).To(Equal(41))
			Expect(outcome.Usage.Provider).To(Equal("OpenAI"))
		})
	})

	When("the provider replies 401 with a nested error message", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`))
		})

		It("surfaces the provider's message as an APIError", func() {
			var apiErr *APIError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Message).To(Equal("invalid api key"))
			Expect(apiErr.Provider).To(Equal("OpenAI"))
		})
	})

	When("the provider replies 2xx without choices", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"choices": [], "usage": {"prompt_tokens": 1, "completion_tokens": 0}}`))
		})

		It("returns an invalid-response error", func() {
			Expect(err).To(MatchError(ErrInvalidResponse))
		})
	})

	When("the server is unreachable", func() {
		BeforeEach(func() {
			badServer := ghttp.NewServer()
			client = NewOpenAI(badServer.URL(), "gpt-test")
			badServer.Close()
		})

		It("returns a wrapped transport error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("calling openai API"))
		})
	})
})
