package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/mirror"
)

// DefaultModelName is the default Gemini model used for suggestions.
const DefaultModelName = "gemini-2.5-flash"

// Suggestion is one model-proposed categorization for a mirrored record.
type Suggestion struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
}

// AISuggester provides an interface for AI-powered category suggestions.
// This interface enables mocking and testing of suggestion functionality.
type AISuggester interface {
	// SuggestCategories sends uncategorized records to an AI model and
	// returns proposed category assignments.
	SuggestCategories(ctx context.Context, records []*mirror.Record) ([]Suggestion, error)
}

// GeminiSuggester is the concrete implementation of AISuggester that uses Gemini AI.
type GeminiSuggester struct {
	modelName string
}

// NewGeminiSuggester creates a new instance of GeminiSuggester.
func NewGeminiSuggester() *GeminiSuggester {
	return &GeminiSuggester{modelName: DefaultModelName}
}

// SuggestCategories sends the uncategorized subset of records to Gemini
// and returns the parsed suggestions. Records that already carry a real
// category are never sent to the model.
func (s *GeminiSuggester) SuggestCategories(ctx context.Context, records []*mirror.Record) ([]Suggestion, error) {
	pending := uncategorized(records)
	if len(pending) == 0 {
		return nil, nil
	}

	prompt := buildSuggestPrompt(pending)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("SuggestCategories: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, s.modelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("SuggestCategories: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("SuggestCategories: empty response from model")
	}

	return parseSuggestions(rawText, pending)
}

// parseSuggestions decodes the model output and drops suggestions that
// do not reference one of the requested records.
func parseSuggestions(rawText string, requested []*mirror.Record) ([]Suggestion, error) {
	clean := cleanModelJSON(rawText)

	var parsed []Suggestion
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("parseSuggestions: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	valid := make(map[string]bool, len(requested))
	for _, rec := range requested {
		valid[rec.ID] = true
	}

	var result []Suggestion
	for _, s := range parsed {
		if s.TransactionID == "" || !valid[s.TransactionID] {
			continue
		}
		if s.Category == "" {
			continue
		}
		result = append(result, s)
	}

	return result, nil
}

// ApplySuggestions writes suggestions onto the matching records and
// returns how many records changed. Only records still carrying the
// unknown sentinel are touched, so a user edit between suggestion and
// apply always wins.
func ApplySuggestions(ctx context.Context, records []*mirror.Record, suggestions []Suggestion) int {
	log := logger.FromContext(ctx)

	byID := make(map[string]*mirror.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	var applied int
	for _, s := range suggestions {
		rec, ok := byID[s.TransactionID]
		if !ok {
			continue
		}
		if rec.Category != mirror.UnknownCategory {
			log.Debug().
				Str("transaction_id", s.TransactionID).
				Msg("Skipping suggestion for already-categorized record")
			continue
		}

		rec.Category = s.Category
		rec.Subcategory = s.Subcategory
		applied++
	}

	return applied
}

// uncategorized returns the records still carrying the unknown sentinel.
func uncategorized(records []*mirror.Record) []*mirror.Record {
	var result []*mirror.Record
	for _, rec := range records {
		if rec.Category == mirror.UnknownCategory {
			result = append(result, rec)
		}
	}
	return result
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON array,
	// try to keep only from the first '[' to the last ']'.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = s[start : end+1]
			s = strings.TrimSpace(s)
		}
	}

	return s
}

var _ AISuggester = (*GeminiSuggester)(nil)
