package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"stealth-overlay/src/config"
	overlayerrors "stealth-overlay/src/errors"
	"stealth-overlay/src/logutil"
)

const (
	SystemPrompt     = "Be concise and helpful."
	BatchPrompt      = SystemPrompt + " Analyze all provided images in order."
	ExtractionPrompt = "You are an expert content extractor. Extract ALL text, formulas, diagrams, and structured information from the provided images. Be comprehensive and detailed."
	ExtractionModel  = "gemini-2.0-flash"

	NoResponse   = "[No response]"
	NoExtraction = "[No extraction]"

	imageMIMEType = "image/png"
	cacheSize     = 32
)

// Credentials supplies the primary key and the user-selected model.
type Credentials interface {
	PrimaryKey() (string, bool)
	Model() string
}

// Client builds the single-shot, batch and extraction requests.
type Client struct {
	provider Provider
	creds    Credentials
	// encoded caches base64 image data by file identity, so a rewritten or
	// deleted file is read again.
	encoded *lru.Cache[artifactKey, string]
}

func NewClient(provider Provider, creds Credentials) (*Client, error) {
	cache, err := lru.New[artifactKey, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact cache: %w", err)
	}
	return &Client{provider: provider, creds: creds, encoded: cache}, nil
}

// Ask sends a text-only prompt with the user model.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	key, err := c.primaryKey()
	if err != nil {
		return "", err
	}
	return c.send(ctx, key, c.creds.Model(), SystemPrompt, []Part{TextPart(prompt)}, NoResponse)
}

// AskWithImage sends a prompt plus one stored image.
func (c *Client) AskWithImage(ctx context.Context, prompt, path string) (string, error) {
	key, err := c.primaryKey()
	if err != nil {
		return "", err
	}
	img, err := c.load(path)
	if err != nil {
		return "", err
	}
	parts := []Part{TextPart(prompt), img}
	return c.send(ctx, key, c.creds.Model(), SystemPrompt, parts, NoResponse)
}

// AskQueue sends a prompt plus every image of a queue snapshot, in order.
func (c *Client) AskQueue(ctx context.Context, prompt string, snapshot []string) (string, error) {
	return c.batch(ctx, prompt, snapshot, c.creds.Model(), BatchPrompt, NoResponse)
}

// Extract is the batch request pinned to ExtractionModel with the extraction
// instruction. It ignores the user model.
func (c *Client) Extract(ctx context.Context, prompt string, snapshot []string) (string, error) {
	return c.batch(ctx, prompt, snapshot, ExtractionModel, ExtractionPrompt, NoExtraction)
}

func (c *Client) batch(ctx context.Context, prompt string, snapshot []string, model, system, placeholder string) (string, error) {
	key, err := c.primaryKey()
	if err != nil {
		return "", err
	}
	if len(snapshot) == 0 {
		return "", overlayerrors.NewEmptyQueue()
	}

	parts := make([]Part, 0, len(snapshot)+1)
	parts = append(parts, TextPart(prompt))
	for _, path := range snapshot {
		img, err := c.load(path)
		if err != nil {
			return "", err
		}
		parts = append(parts, img)
	}
	return c.send(ctx, key, model, system, parts, placeholder)
}

func (c *Client) primaryKey() (string, error) {
	key, ok := c.creds.PrimaryKey()
	if !ok {
		return "", overlayerrors.NewMissingCredential(config.PrimaryKeyEnvVar)
	}
	return key, nil
}

func (c *Client) send(ctx context.Context, key, model, system string, parts []Part, placeholder string) (string, error) {
	log.Printf("llm: sending %d parts to %s: %s", len(parts), model, logutil.Sanitize(parts[0].Text))
	text, err := c.provider.Send(ctx, Request{APIKey: key, Model: model, System: system, Parts: parts})
	if err != nil {
		return "", err
	}
	if text == "" {
		return placeholder, nil
	}
	return text, nil
}

type artifactKey struct {
	path    string
	size    int64
	modTime time.Time
}

func (c *Client) load(path string) (Part, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Part{}, overlayerrors.NewArtifactRead(path, err)
	}
	key := artifactKey{path: path, size: info.Size(), modTime: info.ModTime()}
	if data, ok := c.encoded.Get(key); ok {
		return ImagePart(imageMIMEType, data), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Part{}, overlayerrors.NewArtifactRead(path, err)
	}
	data := base64.StdEncoding.EncodeToString(raw)
	c.encoded.Add(key, data)
	return ImagePart(imageMIMEType, data), nil
}
