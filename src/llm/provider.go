package llm

import "context"

// Part is one piece of a user turn: text, or a base64 image when Data is set.
type Part struct {
	Text     string
	MIMEType string
	Data     string
}

// TextPart returns a text content part.
func TextPart(s string) Part { return Part{Text: s} }

// ImagePart returns an image content part from base64 data.
func ImagePart(mimeType, data string) Part { return Part{MIMEType: mimeType, Data: data} }

// IsImage reports whether the part carries image data.
func (p Part) IsImage() bool { return p.Data != "" }

// Request is a single chat exchange: a system instruction and one user turn.
type Request struct {
	APIKey string
	Model  string
	System string
	Parts  []Part
}

// Provider sends one chat request and returns the first text content, or ""
// if the response had none.
type Provider interface {
	Send(ctx context.Context, req Request) (string, error)
}
