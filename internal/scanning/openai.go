package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const openAILabel = "OpenAI"

// OpenAI implements the Client interface using the Chat Completions API
type OpenAI struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAI creates a new OpenAI Client instance
func NewOpenAI(baseURL string, modelName string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return &OpenAI{
		baseURL: baseURL,
		model:   modelName,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// openAIRequest represents the request body for the Chat Completions API.
// Temperature zero keeps the extraction deterministic.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIResponse represents the success body of the Chat Completions API
type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Name returns the provider label
func (o *OpenAI) Name() string {
	return openAILabel
}

// Call sends the extracted receipt text to OpenAI and decodes the reply
func (o *OpenAI) Call(ctx context.Context, extractedText, credential string) (*ParseOutcome, error) {
	reqBody := openAIRequest{
		Model: o.model,
		Messages: []openAIMessage{
			{
				Role:    "user",
				Content: buildReceiptPrompt(extractedText),
			},
		},
		MaxTokens:   maxResponseTokens,
		Temperature: 0,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", credential))

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, decodeAPIError(openAILabel, resp.StatusCode, body)
	}

	var chatResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("openai response has no message content: %w", ErrInvalidResponse)
	}

	fields, err := parseReceiptFields(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &ParseOutcome{
		Fields: fields,
		Usage: UsageMetrics{
			InputTokens:  chatResp.Usage.PromptTokens,
			OutputTokens: chatResp.Usage.CompletionTokens,
			Provider:     openAILabel,
		},
	}, nil
}
