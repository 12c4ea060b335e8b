package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// ErrExtraction means the model output could not be parsed into booking
// fields. Treated as "no booking", never retried.
var ErrExtraction = errors.New("calls: transcript extraction failed")

// Extracted is the structured booking data pulled from a transcript. Model
// output is untrusted input: every field is revalidated downstream exactly
// like caller-typed data.
type Extracted struct {
	WantsBooking bool   `json:"wants_booking"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Street       string `json:"street"`
	City         string `json:"city"`
	Zip          string `json:"zip"`
	Issue        string `json:"issue"`
	Day          string `json:"day"`
	TimeWindow   string `json:"time_window"`
}

// TextGenerator is the single-shot LLM call the extractor needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator implements TextGenerator against Google's Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	modelID string
}

// NewGeminiGenerator creates a Gemini-backed text generator.
func NewGeminiGenerator(ctx context.Context, apiKey, modelID string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("calls: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("calls: failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, modelID: modelID}, nil
}

// GenerateText runs one prompt and returns the concatenated text parts.
func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("calls: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("calls: gemini returned no candidates")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// Close releases resources held by the Gemini client.
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

const extractionPrompt = `You read a phone call transcript between a plumbing company's AI receptionist and a caller. Extract the booking details the caller provided.

Respond with ONLY a JSON object, no prose, matching exactly:
{"wants_booking": bool, "name": "", "phone": "", "street": "", "city": "", "zip": "", "issue": "", "day": "", "time_window": ""}

Rules:
- wants_booking is true only if the caller agreed to schedule a visit.
- day is "today", "tomorrow", or a lowercase weekday name, else "".
- time_window is one of "morning", "midday", "afternoon", else "".
- Leave any field you are not sure about as "".

Transcript:
`

// Extractor turns a raw transcript into an Extracted record.
type Extractor struct {
	llm    TextGenerator
	logger *logging.Logger
}

// NewExtractor wires a transcript extractor.
func NewExtractor(llm TextGenerator, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, logger: logger}
}

// Extract asks the model for booking fields and parses its reply. Any model
// or parse failure is ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Extracted, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: empty transcript", ErrExtraction)
	}

	raw, err := e.llm.GenerateText(ctx, extractionPrompt+transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	payload, ok := extractJSONObject(raw)
	if !ok {
		e.logger.Warn("extraction returned no JSON object", "raw_prefix", prefix(raw, 120))
		return nil, fmt.Errorf("%w: no JSON object in model output", ErrExtraction)
	}

	var out Extracted
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		e.logger.Warn("extraction returned malformed JSON", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return &out, nil
}

// extractJSONObject pulls the first top-level JSON object out of model
// output, tolerating markdown code fences and surrounding prose.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
