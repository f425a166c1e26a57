package control

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Ops understood by the resident.
const (
	OpMove            = "move"
	OpNudge           = "nudge"
	OpToggle          = "toggle"
	OpResize          = "resize"
	OpCaptureRegion   = "capture-region"
	OpCaptureFull     = "capture-full"
	OpSetPrimaryKey   = "set-primary-key"
	OpGetPrimaryKey   = "get-primary-key"
	OpSetSecondaryKey = "set-secondary-key"
	OpGetSecondaryKey = "get-secondary-key"
	OpSetModel        = "set-model"
	OpGetModel        = "get-model"
	OpEnqueue         = "enqueue"
	OpQueueLength     = "queue-length"
	OpClearQueue      = "clear-queue"
	OpAsk             = "ask"
	OpAskImage        = "ask-image"
	OpAskQueue        = "ask-queue"
	OpBeast           = "beast"
	OpQuit            = "quit"
)

// Ops lists every op in protocol order.
var Ops = []string{
	OpMove, OpNudge, OpToggle, OpResize, OpCaptureRegion, OpCaptureFull,
	OpSetPrimaryKey, OpGetPrimaryKey, OpSetSecondaryKey, OpGetSecondaryKey,
	OpSetModel, OpGetModel, OpEnqueue, OpQueueLength, OpClearQueue,
	OpAsk, OpAskImage, OpAskQueue, OpBeast, OpQuit,
}

// Request is one operation as sent on the wire: a single JSON line.
type Request struct {
	Op        string `json:"op"`
	Position  string `json:"position,omitempty"`
	Direction string `json:"direction,omitempty"`
	Step      int    `json:"step,omitempty"`
	X         int    `json:"x,omitempty"`
	Y         int    `json:"y,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Key       string `json:"key,omitempty"`
	Model     string `json:"model,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
	Path      string `json:"path,omitempty"`
}

// NeedsPrompt reports whether the op sends a prompt to a model.
func (r Request) NeedsPrompt() bool {
	switch r.Op {
	case OpAsk, OpAskImage, OpAskQueue, OpBeast:
		return true
	}
	return false
}

func (r Request) String() string {
	if r.Direction != "" {
		return r.Op + ":" + r.Direction
	}
	return r.Op
}

func encodeRequest(r Request) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func decodeRequest(line string) (Request, error) {
	var r Request
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &r); err != nil {
		return Request{}, fmt.Errorf("invalid request: %w", err)
	}
	if r.Op == "" {
		return Request{}, fmt.Errorf("invalid request: missing op")
	}
	return r, nil
}
