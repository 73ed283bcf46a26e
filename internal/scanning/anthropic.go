package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const anthropicLabel = "Anthropic"

// Anthropic implements the Client interface using the Anthropic Messages API
type Anthropic struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewAnthropic creates a new Anthropic Client instance
func NewAnthropic(baseURL string, modelName string) *Anthropic {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if modelName == "" {
		modelName = "claude-3-5-haiku-latest"
	}

	return &Anthropic{
		baseURL: baseURL,
		model:   modelName,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// anthropicRequest represents the request body for the Messages API
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents the success body of the Messages API
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Name returns the provider label
func (a *Anthropic) Name() string {
	return anthropicLabel
}

// Call sends the extracted receipt text to Anthropic and decodes the reply
func (a *Anthropic) Call(ctx context.Context, extractedText, credential string) (*ParseOutcome, error) {
	reqBody := anthropicRequest{
		Model:     a.model,
		MaxTokens: maxResponseTokens,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: buildReceiptPrompt(extractedText),
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", credential)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, decodeAPIError(anthropicLabel, resp.StatusCode, body)
	}

	var msgResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(msgResp.Content) == 0 || msgResp.Content[0].Text == "" {
		return nil, fmt.Errorf("anthropic response has no content text: %w", ErrInvalidResponse)
	}

	fields, err := parseReceiptFields(msgResp.Content[0].Text)
	if err != nil {
		return nil, err
	}

	return &ParseOutcome{
		Fields: fields,
		Usage: UsageMetrics{
			InputTokens:  msgResp.Usage.InputTokens,
			OutputTokens: msgResp.Usage.OutputTokens,
			Provider:     anthropicLabel,
		},
	}, nil
}
