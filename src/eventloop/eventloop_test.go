package eventloop

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stealth-overlay/src/control"
	overlayerrors "stealth-overlay/src/errors"
)

type fakeOps struct {
	mu      sync.Mutex
	visible bool
	queue   int
	model   string
	prompts []string
	moved   string
	done    chan struct{}
	once    sync.Once
}

func newFakeOps() *fakeOps { return &fakeOps{visible: true, model: "m", done: make(chan struct{})} }

func (f *fakeOps) MoveTo(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moved = p
	return nil
}
func (f *fakeOps) Nudge(string, int) error { return nil }
func (f *fakeOps) ToggleVisibility() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = !f.visible
	return f.visible
}
func (f *fakeOps) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}
func (f *fakeOps) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.New("invalid size")
	}
	return nil
}
func (f *fakeOps) CaptureRegion(x, y, w, h int) (string, error) { return "region.png", nil }
func (f *fakeOps) CaptureFullScreen() (string, error)           { return "full.png", nil }
func (f *fakeOps) SetPrimaryKey(string)                         {}
func (f *fakeOps) PrimaryKey() (string, bool)                   { return "pk", true }
func (f *fakeOps) SetSecondaryKey(string)                       {}
func (f *fakeOps) SecondaryKey() (string, bool)                 { return "", false }
func (f *fakeOps) SetModel(m string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = m
	return m
}
func (f *fakeOps) Model() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model
}
func (f *fakeOps) EnqueueCapture() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue++
	return f.queue, nil
}
func (f *fakeOps) QueueLength() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue
}
func (f *fakeOps) ClearQueue() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = 0
}
func (f *fakeOps) Ask(_ context.Context, p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	return "answer to " + p, nil
}
func (f *fakeOps) AskWithImage(_ context.Context, p, path string) (string, error) {
	return p + " " + path, nil
}
func (f *fakeOps) AskQueue(_ context.Context, p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	if f.queue == 0 {
		return "", overlayerrors.NewEmptyQueue()
	}
	return "batch " + strconv.Itoa(f.queue), nil
}
func (f *fakeOps) BeastMode(_ context.Context, p string) (string, error) { return "beast", nil }
func (f *fakeOps) Quit()                                                 { f.once.Do(func() { close(f.done) }) }
func (f *fakeOps) Done() <-chan struct{}                                 { return f.done }

type shown struct {
	title string
	text  string
	err   error
}

type fakePresenter struct {
	prompt string
	shown  chan shown
	mu     sync.Mutex
	queue  int
}

func newFakePresenter(prompt string) *fakePresenter {
	return &fakePresenter{prompt: prompt, shown: make(chan shown, 8)}
}

func (p *fakePresenter) Prompt() string                 { return p.prompt }
func (p *fakePresenter) ShowResult(title, text string)  { p.shown <- shown{title: title, text: text} }
func (p *fakePresenter) ShowError(title string, e error) { p.shown <- shown{title: title, err: e} }
func (p *fakePresenter) QueueChanged(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = n
}
func (p *fakePresenter) VisibilityChanged(bool) {}

func runLoop(t *testing.T, l *Loop) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitShown(t *testing.T, p *fakePresenter) shown {
	t.Helper()
	select {
	case s := <-p.shown:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("nothing shown")
		return shown{}
	}
}

func TestLocalAskUsesPresenterPrompt(t *testing.T) {
	ops := newFakeOps()
	p := newFakePresenter("typed prompt")
	var copied []string
	var mu sync.Mutex
	l := New(ops, nil, p, Options{Workers: 1, Copy: func(s string) error {
		mu.Lock()
		defer mu.Unlock()
		copied = append(copied, s)
		return nil
	}})
	runLoop(t, l)

	require.True(t, l.Post(control.Request{Op: control.OpAsk}))

	got := waitShown(t, p)
	assert.Equal(t, "Answer", got.title)
	assert.Equal(t, "answer to typed prompt", got.text)
	mu.Lock()
	assert.Equal(t, []string{"answer to typed prompt"}, copied)
	mu.Unlock()
}

func TestLocalErrorShown(t *testing.T) {
	ops := newFakeOps()
	p := newFakePresenter("x")
	l := New(ops, nil, p, Options{Workers: 1})
	runLoop(t, l)

	l.Post(control.Request{Op: control.OpAskQueue})

	got := waitShown(t, p)
	assert.True(t, overlayerrors.Is(got.err, overlayerrors.ErrEmptyQueue))
}

func TestUnknownOpRejected(t *testing.T) {
	_, err := taskFor(newFakeOps(), control.Request{Op: "dance"})
	assert.True(t, overlayerrors.Is(err, overlayerrors.ErrInvalidRequest))
}

func TestEveryOpHasATask(t *testing.T) {
	for _, op := range control.Ops {
		if op == control.OpQuit {
			continue
		}
		task, err := taskFor(newFakeOps(), control.Request{Op: op})
		require.NoError(t, err, op)
		assert.NotNil(t, task, op)
	}
}

func TestDispatchResults(t *testing.T) {
	ops := newFakeOps()
	run := func(req control.Request) (string, error) {
		task, err := taskFor(ops, req)
		require.NoError(t, err)
		return task(context.Background())
	}

	text, err := run(control.Request{Op: control.OpToggle})
	require.NoError(t, err)
	assert.Equal(t, "hidden", text)

	text, _ = run(control.Request{Op: control.OpEnqueue})
	assert.Equal(t, "1", text)
	text, _ = run(control.Request{Op: control.OpQueueLength})
	assert.Equal(t, "1", text)

	text, _ = run(control.Request{Op: control.OpSetModel, Model: "gemini-2.0-flash"})
	assert.Equal(t, "gemini-2.0-flash", text)

	text, _ = run(control.Request{Op: control.OpResize, Width: 800, Height: 600})
	assert.Equal(t, "800x600", text)

	_, err = run(control.Request{Op: control.OpResize})
	assert.Error(t, err)

	text, _ = run(control.Request{Op: control.OpGetSecondaryKey})
	assert.Equal(t, "", text)
}

func TestControlRoundTripAndQuit(t *testing.T) {
	srv := control.NewServer(0, 0)
	ops := newFakeOps()
	l := New(ops, srv, nil, Options{Workers: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	var port int
	require.Eventually(t, func() bool {
		port = srv.Port()
		return port != 0
	}, 2*time.Second, 10*time.Millisecond)
	client := control.NewClient(port, port)

	text, err := client.Do(ctx, control.Request{Op: control.OpMove, Position: "center"})
	require.NoError(t, err)
	assert.Equal(t, "center", text)

	_, err = client.Do(ctx, control.Request{Op: control.OpAskQueue, Prompt: "x"})
	var remote *control.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Contains(t, remote.Message, "no images in queue")

	_, err = client.Do(ctx, control.Request{Op: control.OpQuit})
	require.NoError(t, err)

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after quit")
	}
}
