package app

import (
	"context"
	"log"
	"sync"

	"stealth-overlay/src/config"
	"stealth-overlay/src/logutil"
	"stealth-overlay/src/queue"
	"stealth-overlay/src/screenshot"
	"stealth-overlay/src/window"
)

// Capturer writes a screenshot artifact and returns its path.
type Capturer interface {
	CaptureRegion(region screenshot.Region) (string, error)
	CaptureFullScreen() (string, error)
}

// Inference answers prompts with the primary provider.
type Inference interface {
	Ask(ctx context.Context, prompt string) (string, error)
	AskWithImage(ctx context.Context, prompt, path string) (string, error)
	AskQueue(ctx context.Context, prompt string, snapshot []string) (string, error)
}

// Escalator runs the extract-then-answer pipeline over a snapshot.
type Escalator interface {
	Run(ctx context.Context, prompt string, snapshot []string) (string, error)
}

type Deps struct {
	Window   *window.Controller
	Queue    *queue.ImageQueue
	Capture  Capturer
	Config   *config.Runtime
	LLM      Inference
	Pipeline Escalator
	// OnQuit is called once, by the first Quit.
	OnQuit func()
}

// Context binds every operation the overlay exposes to its components. Each
// component guards its own state, so methods may be called from any goroutine.
type Context struct {
	Window   *window.Controller
	Queue    *queue.ImageQueue
	Capture  Capturer
	Config   *config.Runtime
	LLM      Inference
	Pipeline Escalator

	quitOnce sync.Once
	onQuit   func()
	done     chan struct{}
}

func New(d Deps) *Context {
	return &Context{
		Window:   d.Window,
		Queue:    d.Queue,
		Capture:  d.Capture,
		Config:   d.Config,
		LLM:      d.LLM,
		Pipeline: d.Pipeline,
		onQuit:   d.OnQuit,
		done:     make(chan struct{}),
	}
}

func (c *Context) MoveTo(position string) error {
	return c.Window.MoveTo(window.Anchor(position))
}

func (c *Context) Nudge(direction string, step int) error {
	return c.Window.Nudge(window.Direction(direction), step)
}

// Visible reports whether the overlay currently accepts input.
func (c *Context) Visible() bool {
	return c.Window.Visible()
}

// ToggleVisibility returns the visibility after the call.
func (c *Context) ToggleVisibility() bool {
	return c.Window.Toggle()
}

func (c *Context) Resize(width, height int) error {
	return c.Window.Resize(width, height)
}

func (c *Context) CaptureRegion(x, y, width, height int) (string, error) {
	return c.Capture.CaptureRegion(screenshot.Region{X: x, Y: y, Width: width, Height: height})
}

func (c *Context) CaptureFullScreen() (string, error) {
	return c.Capture.CaptureFullScreen()
}

func (c *Context) SetPrimaryKey(key string) { c.Config.SetPrimaryKey(key) }

func (c *Context) PrimaryKey() (string, bool) { return c.Config.PrimaryKey() }

func (c *Context) SetSecondaryKey(token string) { c.Config.SetSecondaryKey(token) }

func (c *Context) SecondaryKey() (string, bool) { return c.Config.SecondaryKey() }

func (c *Context) SetModel(model string) string { return c.Config.SetModel(model) }

func (c *Context) Model() string { return c.Config.Model() }

// EnqueueCapture adds a full-screen capture to the queue and returns its
// length. Inside the capture interval nothing is captured.
func (c *Context) EnqueueCapture() (int, error) {
	return c.Queue.Enqueue()
}

func (c *Context) QueueLength() int { return c.Queue.Len() }

func (c *Context) ClearQueue() { c.Queue.Clear() }

func (c *Context) Ask(ctx context.Context, prompt string) (string, error) {
	log.Printf("app: ask %q", logutil.Sanitize(prompt))
	return c.LLM.Ask(ctx, prompt)
}

func (c *Context) AskWithImage(ctx context.Context, prompt, path string) (string, error) {
	log.Printf("app: ask with image %s", path)
	return c.LLM.AskWithImage(ctx, prompt, path)
}

// AskQueue answers over the queue as it is at the time of the call.
func (c *Context) AskQueue(ctx context.Context, prompt string) (string, error) {
	snapshot := c.Queue.Snapshot()
	log.Printf("app: ask over %d queued images", len(snapshot))
	return c.LLM.AskQueue(ctx, prompt, snapshot)
}

// BeastMode runs the two-stage pipeline over the current queue snapshot.
func (c *Context) BeastMode(ctx context.Context, prompt string) (string, error) {
	snapshot := c.Queue.Snapshot()
	log.Printf("app: beast mode over %d queued images", len(snapshot))
	return c.Pipeline.Run(ctx, prompt, snapshot)
}

// Quit requests shutdown. Only the first call has an effect.
func (c *Context) Quit() {
	c.quitOnce.Do(func() {
		log.Printf("app: quit requested")
		close(c.done)
		if c.onQuit != nil {
			c.onQuit()
		}
	})
}

// Done is closed once Quit has been called.
func (c *Context) Done() <-chan struct{} { return c.done }
