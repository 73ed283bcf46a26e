package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrInvalidImage means the supplied data could not be read as an image
	ErrInvalidImage = errors.New("invalid or unreadable image")

	// ErrNoTextFound means recognition ran but found no text in the image
	ErrNoTextFound = errors.New("no text found in image")
)

// RecognitionError means the OCR engine itself failed.
type RecognitionError struct {
	Detail string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("text recognition failed: %s", e.Detail)
}

// TextExtractor converts a receipt image into raw text
type TextExtractor interface {
	// ExtractText runs optical character recognition on the image and
	// returns the recognized text. Fails with ErrInvalidImage,
	// ErrNoTextFound, or a RecognitionError.
	ExtractText(ctx context.Context, imageData []byte, contentType string) (string, error)
}

// TesseractExtractor implements TextExtractor against a tesseract-server
// HTTP endpoint
type TesseractExtractor struct {
	baseURL   string
	languages []string
	client    *http.Client
}

// NewTesseractExtractor creates a new TesseractExtractor instance
func NewTesseractExtractor(baseURL string, languages []string) *TesseractExtractor {
	if baseURL == "" {
		baseURL = "http://localhost:8884"
	}
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	return &TesseractExtractor{
		baseURL:   baseURL,
		languages: languages,
		client: &http.Client{
			Timeout: 60 * time.Second, // OCR on large phone photos can be slow
		},
	}
}

// tesseractResponse represents the response body from tesseract-server
type tesseractResponse struct {
	Data struct {
		Exit struct {
			Code int `json:"code"`
		} `json:"exit"`
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
	} `json:"data"`
}

// ExtractText normalizes the image to PNG and sends it to the OCR server
func (t *TesseractExtractor) ExtractText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pngData, err := prepareImage(imageData, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidImage, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	options, err := json.Marshal(map[string]any{"languages": t.languages})
	if err != nil {
		return "", fmt.Errorf("marshaling options: %w", err)
	}
	if err := writer.WriteField("options", string(options)); err != nil {
		return "", fmt.Errorf("writing options field: %w", err)
	}

	part, err := writer.CreateFormFile("file", "receipt.png")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(pngData); err != nil {
		return "", fmt.Errorf("writing image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/tesseract", t.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling tesseract API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &RecognitionError{Detail: fmt.Sprintf("tesseract API error (status %d): %s", resp.StatusCode, string(respBody))}
	}

	var ocrResp tesseractResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return "", &RecognitionError{Detail: fmt.Sprintf("decoding response: %s", err)}
	}

	if ocrResp.Data.Exit.Code != 0 {
		return "", &RecognitionError{Detail: fmt.Sprintf("tesseract exited with code %d: %s", ocrResp.Data.Exit.Code, ocrResp.Data.Stderr)}
	}

	text := strings.TrimSpace(ocrResp.Data.Stdout)
	if text == "" {
		return "", ErrNoTextFound
	}

	return text, nil
}
