package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	overlayerrors "stealth-overlay/src/errors"
)

const requestTimeout = 90 * time.Second

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
// Gemini exposes one at config.DefaultPrimaryURL.
type OpenAIProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIProvider(baseURL string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (p *OpenAIProvider) Send(ctx context.Context, req Request) (string, error) {
	cfg := openai.DefaultConfig(req.APIKey)
	cfg.BaseURL = p.baseURL
	cfg.HTTPClient = p.httpClient
	client := openai.NewClientWithConfig(cfg)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
		userMessage(req.Parts),
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		log.Printf("llm: %s request failed after %v: %v", req.Model, time.Since(start), err)
		return "", inferenceError(err)
	}
	log.Printf("llm: %s answered in %v", req.Model, time.Since(start))

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// userMessage uses plain content for text-only turns and multi-part content
// as soon as an image is present.
func userMessage(parts []Part) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}

	hasImage := false
	for _, p := range parts {
		if p.IsImage() {
			hasImage = true
			break
		}
	}
	if !hasImage {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			texts = append(texts, p.Text)
		}
		msg.Content = strings.Join(texts, "\n")
		return msg
	}

	for _, p := range parts {
		if p.IsImage() {
			msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: fmt.Sprintf("data:%s;base64,%s", p.MIMEType, p.Data)},
			})
			continue
		}
		msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: p.Text,
		})
	}
	return msg
}

// inferenceError keeps the provider's own message when it sent one.
func inferenceError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := overlayerrors.NewInference(apiErr.Message, err)
		e.Status = apiErr.HTTPStatusCode
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		e := overlayerrors.NewInference(fmt.Sprintf("provider returned status %d", reqErr.HTTPStatusCode), err)
		e.Status = reqErr.HTTPStatusCode
		return e
	}
	return overlayerrors.NewInference(err.Error(), err)
}
