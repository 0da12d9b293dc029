// internal/ai/summarizer.go
package ai

import (
	"context"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer condenses a call transcript into a one-line summary for the
// campaign report.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

type OpenAISummarizer struct {
	client *openai.Client
	model  string
}

// NewOpenAISummarizerFromEnv builds a summarizer from OPENAI_API_KEY.
// Returns nil when the key is not configured; the caller skips summaries.
func NewOpenAISummarizerFromEnv() *OpenAISummarizer {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAISummarizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    "system",
				Content: "Summarize this appointment reminder call transcript in one sentence. State whether the patient confirmed, cancelled, rescheduled, or did not answer.",
			},
			{
				Role:    "user",
				Content: transcript,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
