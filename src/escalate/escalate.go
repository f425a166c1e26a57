package escalate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	overlayerrors "stealth-overlay/src/errors"
	"stealth-overlay/src/logutil"
)

// Timeout bounds the whole secondary call.
const Timeout = 120 * time.Second

// Extractor runs the first stage over a queue snapshot.
type Extractor interface {
	Extract(ctx context.Context, prompt string, snapshot []string) (string, error)
}

// Credentials supplies the secondary token.
type Credentials interface {
	SecondaryKey() (string, bool)
}

// Pipeline extracts content from the queued images and then asks a secondary
// provider to answer it. Once extraction succeeds its text always reaches the
// caller: a missing token, a 503, a 400 or an unreachable endpoint degrade to
// a notice around the extraction instead of failing.
type Pipeline struct {
	extractor Extractor
	creds     Credentials
	endpoint  string
	client    *http.Client
}

func New(extractor Extractor, creds Credentials, endpoint string) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		creds:     creds,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: Timeout},
	}
}

type generationParams struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
	DoSample       bool    `json:"do_sample"`
	TopP           float64 `json:"top_p"`
}

type generationRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters generationParams `json:"parameters"`
}

var defaultParams = generationParams{
	MaxNewTokens:   2048,
	Temperature:    0.7,
	ReturnFullText: false,
	DoSample:       true,
	TopP:           0.9,
}

// Run executes both stages. Extraction errors are returned unchanged.
func (p *Pipeline) Run(ctx context.Context, prompt string, snapshot []string) (string, error) {
	extracted, err := p.extractor.Extract(ctx, prompt, snapshot)
	if err != nil {
		return "", err
	}
	log.Printf("escalate: extracted %d chars from %d images", len(extracted), len(snapshot))

	token, ok := p.creds.SecondaryKey()
	if !ok {
		log.Printf("escalate: no secondary token, returning extraction only")
		return notice(extracted, "HUGGINGFACE_TOKEN is not set, so no secondary processing was performed. Set it to enable full answers."), nil
	}

	body, err := json.Marshal(generationRequest{Inputs: CompositePrompt(extracted), Parameters: defaultParams})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("escalate: secondary request failed after %v: %v", time.Since(start), err)
		return notice(extracted, fmt.Sprintf("The secondary model could not be reached (%v). Showing extracted content only.", err)), nil
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	log.Printf("escalate: secondary status %d after %v", resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if readErr != nil {
			log.Printf("escalate: reading secondary response failed: %v", readErr)
			return notice(extracted, fmt.Sprintf("The secondary model response could not be read (%v). Showing extracted content only.", readErr)), nil
		}
		return parseGenerated(respBody), nil
	case resp.StatusCode == http.StatusServiceUnavailable:
		return notice(extracted, "The secondary model is loading or temporarily unavailable. Try again in a minute."), nil
	case resp.StatusCode == http.StatusBadRequest:
		return notice(extracted, "The secondary model rejected the request, most likely because the extracted content is too long."), nil
	default:
		detail := string(respBody)
		if readErr != nil {
			detail = fmt.Sprintf("%s (body unreadable: %v)", detail, readErr)
		}
		log.Printf("escalate: secondary error body: %s", logutil.Sanitize(detail))
		return "", overlayerrors.NewHTTPStatus(resp.StatusCode, detail)
	}
}

// CompositePrompt embeds extracted content in the answering instructions.
func CompositePrompt(extracted string) string {
	return "Based on the extracted content below, provide comprehensive answers:\n\n" +
		extracted +
		"\n\nFor MCQ questions: Identify all possibilities for single correct and multiple correct answers.\n" +
		"For coding questions: Provide complete code solutions in the requested language with proper formatting."
}

func notice(extracted, reason string) string {
	return fmt.Sprintf("## Extraction complete\n\n**Extracted content:**\n%s\n\n**Note:** %s", extracted, reason)
}

// parseGenerated accepts [{"generated_text": ...}] or {"generated_text": ...}.
// Anything else becomes a descriptive message, never an error.
func parseGenerated(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Sprintf("Error parsing AI model response: %v", err)
	}

	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return "Empty response from AI model"
		}
		if first, ok := t[0].(map[string]any); ok {
			if text, ok := first["generated_text"].(string); ok {
				return text
			}
		}
		return "No generated text in response"
	case map[string]any:
		if text, ok := t["generated_text"].(string); ok {
			return text
		}
	}
	return "Unexpected response format from AI model"
}
