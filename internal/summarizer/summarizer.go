package summarizer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	systemInstruction = "You are a concise summarizer. Create summaries in EXACTLY 15 words or less. Capture the key point only."

	// Matches the 15-word bound: a summary never needs more.
	maxOutputTokens = 50
	temperature     = 0.3
)

// Summarize sends the transcript to Gemini and returns the short summary.
// Rotates API keys on 429 / quota errors; other errors surface to the
// caller, which degrades to word truncation.
func (s *implSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if len(s.apiKeys) == 0 {
		return "", fmt.Errorf("no API keys configured")
	}

	userMsg := fmt.Sprintf("Summarize this transcript in exactly 15 words or less:\n\n%s", transcript)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   maxOutputTokens,
	}

	attempts := len(s.apiKeys)
	var lastErr error

	for range attempts {
		idx := s.keyIndex()
		key := s.apiKeys[idx]

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(userMsg), cfg)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				s.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				s.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			return strings.TrimSpace(text), nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (s *implSummarizer) keyIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentKey
}

func (s *implSummarizer) rotateKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
}
