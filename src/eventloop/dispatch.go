package eventloop

import (
	"context"
	"fmt"
	"strconv"

	"stealth-overlay/src/control"
	overlayerrors "stealth-overlay/src/errors"
	"stealth-overlay/src/worker"
)

// Operations is everything a request can ask of the overlay.
type Operations interface {
	MoveTo(position string) error
	Nudge(direction string, step int) error
	ToggleVisibility() bool
	Visible() bool
	Resize(width, height int) error
	CaptureRegion(x, y, width, height int) (string, error)
	CaptureFullScreen() (string, error)
	SetPrimaryKey(key string)
	PrimaryKey() (string, bool)
	SetSecondaryKey(token string)
	SecondaryKey() (string, bool)
	SetModel(model string) string
	Model() string
	EnqueueCapture() (int, error)
	QueueLength() int
	ClearQueue()
	Ask(ctx context.Context, prompt string) (string, error)
	AskWithImage(ctx context.Context, prompt, path string) (string, error)
	AskQueue(ctx context.Context, prompt string) (string, error)
	BeastMode(ctx context.Context, prompt string) (string, error)
	Quit()
	Done() <-chan struct{}
}

// taskFor binds a request to the operation it names. Quit is handled by the
// loop itself so the reply goes out before shutdown.
func taskFor(ops Operations, req control.Request) (worker.Task, error) {
	switch req.Op {
	case control.OpMove:
		return func(context.Context) (string, error) {
			return req.Position, ops.MoveTo(req.Position)
		}, nil
	case control.OpNudge:
		return func(context.Context) (string, error) {
			return "", ops.Nudge(req.Direction, req.Step)
		}, nil
	case control.OpToggle:
		return func(context.Context) (string, error) {
			return visibility(ops.ToggleVisibility()), nil
		}, nil
	case control.OpResize:
		return func(context.Context) (string, error) {
			if err := ops.Resize(req.Width, req.Height); err != nil {
				return "", err
			}
			return fmt.Sprintf("%dx%d", req.Width, req.Height), nil
		}, nil
	case control.OpCaptureRegion:
		return func(context.Context) (string, error) {
			return ops.CaptureRegion(req.X, req.Y, req.Width, req.Height)
		}, nil
	case control.OpCaptureFull:
		return func(context.Context) (string, error) {
			return ops.CaptureFullScreen()
		}, nil
	case control.OpSetPrimaryKey:
		return func(context.Context) (string, error) {
			ops.SetPrimaryKey(req.Key)
			return "", nil
		}, nil
	case control.OpGetPrimaryKey:
		return func(context.Context) (string, error) {
			key, _ := ops.PrimaryKey()
			return key, nil
		}, nil
	case control.OpSetSecondaryKey:
		return func(context.Context) (string, error) {
			ops.SetSecondaryKey(req.Key)
			return "", nil
		}, nil
	case control.OpGetSecondaryKey:
		return func(context.Context) (string, error) {
			token, _ := ops.SecondaryKey()
			return token, nil
		}, nil
	case control.OpSetModel:
		return func(context.Context) (string, error) {
			return ops.SetModel(req.Model), nil
		}, nil
	case control.OpGetModel:
		return func(context.Context) (string, error) {
			return ops.Model(), nil
		}, nil
	case control.OpEnqueue:
		return func(context.Context) (string, error) {
			n, err := ops.EnqueueCapture()
			if err != nil {
				return "", err
			}
			return strconv.Itoa(n), nil
		}, nil
	case control.OpQueueLength:
		return func(context.Context) (string, error) {
			return strconv.Itoa(ops.QueueLength()), nil
		}, nil
	case control.OpClearQueue:
		return func(context.Context) (string, error) {
			ops.ClearQueue()
			return "0", nil
		}, nil
	case control.OpAsk:
		return func(ctx context.Context) (string, error) {
			return ops.Ask(ctx, req.Prompt)
		}, nil
	case control.OpAskImage:
		return func(ctx context.Context) (string, error) {
			return ops.AskWithImage(ctx, req.Prompt, req.Path)
		}, nil
	case control.OpAskQueue:
		return func(ctx context.Context) (string, error) {
			return ops.AskQueue(ctx, req.Prompt)
		}, nil
	case control.OpBeast:
		return func(ctx context.Context) (string, error) {
			return ops.BeastMode(ctx, req.Prompt)
		}, nil
	}
	return nil, overlayerrors.NewInvalidRequest(fmt.Sprintf("unknown op %q", req.Op))
}

func visibility(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}
