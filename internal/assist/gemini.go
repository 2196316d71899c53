package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

const (
	DefaultModel    = "gemini-2.0-flash"
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	maxResponseSize = 1 << 20
)

const systemInstruction = `You are an expert financial assistant that reads a user's natural language prompt and fills out an invoice in JSON format.

Your core task is to:
1. Strictly adhere to the provided JSON schema for the output.
2. Perform all required calculations and data transformations before outputting the final JSON.

Specific instructions:
* Date logic: if the prompt specifies payment terms (e.g. 'Net 15'), you MUST calculate the exact 'dueDate' by adding the specified days to the 'invoiceDate'.
* Line items: convert any listed services or items into the 'items' array. Each item must be a separate object with inferred or explicit 'description', 'quantity' (default to 1 if not specified), and 'amount'.
* Professionalism: all generated text fields, such as 'notes', must be professional, formal, and free of slang.
* Output: your response MUST be ONLY the JSON object.

If the user requires you to think a specific way, e.g. complete this field, do so. Do NOT deviate from the JSON schema.`

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// ProviderError reports a failed exchange with a remote model.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return "assist provider error: " + e.Op
	}

	return "assist provider error: " + e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Gemini{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		ResponseMimeType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Propose(ctx context.Context, prompt string, inv invoice.Invoice) (invoice.Patch, error) {
	if g.apiKey == "" {
		return invoice.Patch{}, &ProviderError{Op: "validate_configuration", Err: fmt.Errorf("api key is not configured")}
	}

	body, err := g.requestBody(prompt, inv)
	if err != nil {
		return invoice.Patch{}, &ProviderError{Op: "marshal_request", Err: err}
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, url.PathEscape(g.model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return invoice.Patch{}, &ProviderError{Op: "create_request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return invoice.Patch{}, &ProviderError{Op: "send_request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return invoice.Patch{}, &ProviderError{Op: "read_response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return invoice.Patch{}, &ProviderError{
			Op:  "check_response_status",
			Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	return parseResponse(raw)
}

func (g *Gemini) requestBody(prompt string, inv invoice.Invoice) ([]byte, error) {
	schema, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Invoice schema:\n%s\n\nUser prompt: %s\n\n"+
		"Return ONLY a JSON object with the fields to update. Use the same keys as the invoice.", schema, prompt)

	var req geminiRequest
	req.SystemInstruction = geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}}
	req.GenerationConfig.ResponseMimeType = "application/json"

	return json.Marshal(req)
}

func parseResponse(raw []byte) (invoice.Patch, error) {
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return invoice.Patch{}, &ProviderError{Op: "parse_response_json", Err: err}
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return invoice.Patch{}, &ProviderError{Op: "check_response_candidates", Err: fmt.Errorf("no candidates in response")}
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	var patch invoice.Patch

	err := json.Unmarshal([]byte(text.String()), &patch)
	if err == nil {
		return patch, nil
	}

	slog.Debug("model output is not bare JSON, extracting object", "error", err)

	match := jsonObject.FindString(text.String())
	if match == "" {
		return invoice.Patch{}, &ProviderError{Op: "extract_json", Err: fmt.Errorf("no JSON object in model output")}
	}

	var extracted invoice.Patch
	if err := json.Unmarshal([]byte(match), &extracted); err != nil {
		return invoice.Patch{}, &ProviderError{Op: "extract_json", Err: err}
	}

	return extracted, nil
}
