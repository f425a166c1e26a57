package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	overlayerrors "stealth-overlay/src/errors"
)

type fakeCreds struct {
	key   string
	model string
}

func (c fakeCreds) PrimaryKey() (string, bool) { return c.key, c.key != "" }
func (c fakeCreds) Model() string              { return c.model }

type fakeProvider struct {
	mu       sync.Mutex
	requests []Request
	reply    string
	err      error
}

func (p *fakeProvider) Send(_ context.Context, req Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.reply, p.err
}

func newTestClient(t *testing.T, p Provider, key string) *Client {
	t.Helper()
	c, err := NewClient(p, fakeCreds{key: key, model: "gemini-2.5-pro"})
	require.NoError(t, err)
	return c
}

func writeArtifact(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestAskMissingCredentialNoCall(t *testing.T) {
	p := &fakeProvider{reply: "hi"}
	c := newTestClient(t, p, "")

	_, err := c.Ask(context.Background(), "hello")

	assert.True(t, overlayerrors.Is(err, overlayerrors.ErrMissingCredential))
	assert.Empty(t, p.requests)
}

func TestAskBuildsTextRequest(t *testing.T) {
	p := &fakeProvider{reply: "answer"}
	c := newTestClient(t, p, "key")

	got, err := c.Ask(context.Background(), "what is 2+2")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, "key", req.APIKey)
	assert.Equal(t, "gemini-2.5-pro", req.Model)
	assert.Equal(t, SystemPrompt, req.System)
	assert.Equal(t, []Part{TextPart("what is 2+2")}, req.Parts)
}

func TestEmptyReplyUsesPlaceholder(t *testing.T) {
	p := &fakeProvider{}
	c := newTestClient(t, p, "key")

	got, err := c.Ask(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, NoResponse, got)
}

func TestAskWithImage(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, "a.png", []byte{1, 2, 3})
	p := &fakeProvider{reply: "seen"}
	c := newTestClient(t, p, "key")

	_, err := c.AskWithImage(context.Background(), "describe", path)
	require.NoError(t, err)

	parts := p.requests[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "describe", parts[0].Text)
	assert.Equal(t, ImagePart("image/png", "AQID"), parts[1])
}

func TestAskWithImageMissingFile(t *testing.T) {
	p := &fakeProvider{}
	c := newTestClient(t, p, "key")

	_, err := c.AskWithImage(context.Background(), "x", filepath.Join(t.TempDir(), "gone.png"))

	assert.True(t, overlayerrors.Is(err, overlayerrors.ErrArtifactRead))
	assert.Empty(t, p.requests)
}

func TestAskQueueOrderAndPrompt(t *testing.T) {
	dir := t.TempDir()
	first := writeArtifact(t, dir, "1.png", []byte("one"))
	second := writeArtifact(t, dir, "2.png", []byte("two"))
	p := &fakeProvider{reply: "both"}
	c := newTestClient(t, p, "key")

	_, err := c.AskQueue(context.Background(), "compare", []string{second, first})
	require.NoError(t, err)

	req := p.requests[0]
	assert.Equal(t, BatchPrompt, req.System)
	require.Len(t, req.Parts, 3)
	assert.Equal(t, "dHdv", req.Parts[1].Data, "snapshot order is kept")
	assert.Equal(t, "b25l", req.Parts[2].Data)
}

func TestAskQueueEmptyNoCall(t *testing.T) {
	p := &fakeProvider{}
	c := newTestClient(t, p, "key")

	_, err := c.AskQueue(context.Background(), "x", nil)

	assert.True(t, overlayerrors.Is(err, overlayerrors.ErrEmptyQueue))
	assert.Empty(t, p.requests)
}

func TestCredentialCheckedBeforeEmptyQueue(t *testing.T) {
	c := newTestClient(t, &fakeProvider{}, "")

	_, err := c.AskQueue(context.Background(), "x", nil)
	assert.True(t, overlayerrors.Is(err, overlayerrors.ErrMissingCredential))
}

func TestExtractPinsModel(t *testing.T) {
	path := writeArtifact(t, t.TempDir(), "x.png", []byte("x"))
	p := &fakeProvider{}
	c := newTestClient(t, p, "key")

	got, err := c.Extract(context.Background(), "solve", []string{path})
	require.NoError(t, err)
	assert.Equal(t, NoExtraction, got)

	req := p.requests[0]
	assert.Equal(t, ExtractionModel, req.Model)
	assert.Equal(t, ExtractionPrompt, req.System)
}

func TestProviderErrorPropagates(t *testing.T) {
	boom := overlayerrors.NewInference("quota exceeded", errors.New("429"))
	c := newTestClient(t, &fakeProvider{err: boom}, "key")

	_, err := c.Ask(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func imageData(t *testing.T, req Request) string {
	t.Helper()
	require.Len(t, req.Parts, 2)
	b, err := base64.StdEncoding.DecodeString(req.Parts[1].Data)
	require.NoError(t, err)
	return string(b)
}

func TestArtifactCacheReusesUnchangedFile(t *testing.T) {
	path := writeArtifact(t, t.TempDir(), "c.png", []byte("cached"))
	p := &fakeProvider{reply: "ok"}
	c := newTestClient(t, p, "key")

	for i := 0; i < 2; i++ {
		_, err := c.AskWithImage(context.Background(), "x", path)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.encoded.Len())
	assert.Equal(t, "cached", imageData(t, p.requests[1]))
}

func TestRewrittenImageIsReread(t *testing.T) {
	path := writeArtifact(t, t.TempDir(), "user.png", []byte("first"))
	p := &fakeProvider{reply: "ok"}
	c := newTestClient(t, p, "key")

	_, err := c.AskWithImage(context.Background(), "x", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	_, err = c.AskWithImage(context.Background(), "x", path)
	require.NoError(t, err)
	assert.Equal(t, "first", imageData(t, p.requests[0]))
	assert.Equal(t, "second", imageData(t, p.requests[1]))
}

func TestDeletedImageFailsAfterCaching(t *testing.T) {
	path := writeArtifact(t, t.TempDir(), "gone.png", []byte("data"))
	p := &fakeProvider{reply: "ok"}
	c := newTestClient(t, p, "key")

	_, err := c.AskWithImage(context.Background(), "x", path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = c.AskWithImage(context.Background(), "x", path)
	assert.True(t, overlayerrors.Is(err, overlayerrors.ErrArtifactRead))
	assert.Len(t, p.requests, 1, "no request is sent for a missing file")
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gemini-2.5-pro", ResolveModel("gemini-2.5-pro"))
	assert.Equal(t, "gemini-2.0-flash", ResolveModel("GEMINI-2.0-FLASH"))
	assert.Equal(t, "gemini-2.5-pro", ResolveModel("25pro"))
	assert.Equal(t, "my-custom-model", ResolveModel("my-custom-model"))
	assert.Equal(t, "", ResolveModel("  "))
}
