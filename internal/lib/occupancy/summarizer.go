package occupancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// lotSummarizer implements the Summarizer interface using OpenAI
type lotSummarizer struct {
	client *openai.Client
	model  string
}

// NewSummarizer creates a new Summarizer implementation
func NewSummarizer(apiKey, model string) Summarizer {
	if apiKey == "" {
		return &lotSummarizer{client: nil, model: model} // Will cause errors - for testing
	}

	client := openai.NewClient(apiKey)
	return &lotSummarizer{
		client: client,
		model:  model,
	}
}

// Summarize converts raw lot counts into a short, plain-language summary
// using OpenAI GPT with structured output.
func (s *lotSummarizer) Summarize(ctx context.Context, raw RawOccupancy) (Summary, error) {
	if s.client == nil {
		return Summary{}, errors.New("OpenAI client not initialized - invalid API key")
	}

	systemPrompt := `You are a parking assistant that converts raw parking lot occupancy counts into short, friendly guidance for drivers arriving on campus.

Return valid JSON with these exact fields:
- availability: one of "plenty", "limited", "full", "unknown"
- headline: single line under 80 chars stating how full the lot is, e.g. "45 of 120 spots free"
- advice: one short sentence of guidance; when the lot is full or nearly full, suggest trying another lot`

	userPrompt := fmt.Sprintf(`Summarize this parking lot reading and return structured JSON:

Lot: %s
Total spots: %d
Available spots: %d
Occupied spots: %d
Occupancy rate: %.1f%%

Pick the availability level from the occupancy rate: under 70%% is "plenty", 70-95%% is "limited", above 95%% is "full".`,
		raw.LotName,
		raw.TotalSpots,
		raw.AvailableSpots,
		raw.OccupiedSpots,
		raw.OccupancyRate)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3, // Lower temperature for more consistent structured output
		MaxTokens:   300,
	})

	if err != nil {
		return Summary{}, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Summary{}, errors.New("no response from OpenAI API")
	}

	var parsed Summary
	jsonResponse := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(jsonResponse), &parsed); err != nil {
		return Summary{}, fmt.Errorf("failed to parse OpenAI JSON response: %w", err)
	}

	// Validate enum and fill gaps from the raw counts
	if !isValidAvailability(parsed.Availability) {
		parsed.Availability = "unknown"
	}
	if parsed.Headline == "" || len(parsed.Headline) > 80 {
		parsed.Headline = FallbackHeadline(raw)
	}

	parsed.LotID = raw.LotID
	parsed.ProcessedAt = time.Now()
	return parsed, nil
}

// HealthCheck verifies OpenAI API connectivity
func (s *lotSummarizer) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return errors.New("OpenAI client not initialized")
	}

	_, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Test",
			},
		},
		MaxTokens: 1,
	})

	if err != nil {
		return fmt.Errorf("OpenAI API health check failed: %w", err)
	}

	return nil
}

// FallbackHeadline builds a plain headline from raw counts, used when the
// summarizer is unavailable or returns an unusable headline.
func FallbackHeadline(raw RawOccupancy) string {
	return fmt.Sprintf("%d of %d spots free", raw.AvailableSpots, raw.TotalSpots)
}

// FallbackSummary builds a Summary without any API call, keeping lot
// listings useful when summarization is down.
func FallbackSummary(raw RawOccupancy) Summary {
	availability := "unknown"
	switch {
	case raw.TotalSpots <= 0:
		availability = "unknown"
	case raw.OccupancyRate > 95:
		availability = "full"
	case raw.OccupancyRate >= 70:
		availability = "limited"
	default:
		availability = "plenty"
	}

	return Summary{
		LotID:        raw.LotID,
		Availability: availability,
		Headline:     FallbackHeadline(raw),
		ProcessedAt:  time.Now(),
	}
}

// isValidAvailability validates availability enum values
func isValidAvailability(availability string) bool {
	validLevels := []string{"plenty", "limited", "full", "unknown"}
	for _, valid := range validLevels {
		if availability == valid {
			return true
		}
	}
	return false
}
