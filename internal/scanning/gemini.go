package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiLabel = "Gemini"

// Gemini implements the Client interface using Google Gemini
type Gemini struct {
	model string
}

// NewGemini creates a new Gemini Client instance. The SDK client itself is
// built per call because the credential is resolved at call time.
func NewGemini(modelName string) *Gemini {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &Gemini{model: modelName}
}

// Name returns the provider label
func (g *Gemini) Name() string {
	return geminiLabel
}

// Call sends the extracted receipt text to Gemini and decodes the reply
func (g *Gemini) Call(ctx context.Context, extractedText, credential string) (*ParseOutcome, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(credential))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)

	resp, err := model.GenerateContent(ctx, genai.Text(buildReceiptPrompt(extractedText)))
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini response has no candidate content: %w", ErrInvalidResponse)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	fields, err := parseReceiptFields(responseText.String())
	if err != nil {
		return nil, err
	}

	usage := UsageMetrics{Provider: geminiLabel}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ParseOutcome{Fields: fields, Usage: usage}, nil
}
