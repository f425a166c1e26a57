package overlay

import (
	"errors"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stealth-overlay/src/control"
)

type recorder struct {
	mu   sync.Mutex
	reqs []control.Request
	busy bool
}

func (r *recorder) post(req control.Request) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return !r.busy
}

func (r *recorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.reqs))
	for _, q := range r.reqs {
		out = append(out, q.Op)
	}
	return out
}

func newTestOverlay(t *testing.T) (*Overlay, *recorder) {
	t.Helper()
	o := newWithApp(test.NewTempApp(t), "test")
	r := &recorder{}
	o.SetPoster(r.post)
	return o, r
}

func TestButtonsPostRequests(t *testing.T) {
	o, r := newTestOverlay(t)

	test.Type(o.prompt, "why")
	test.Tap(o.askButton)
	test.Tap(o.queueButton)
	test.Tap(o.beastButton)

	assert.Equal(t, []string{control.OpAsk, control.OpAskQueue, control.OpBeast}, r.ops())
	for _, q := range r.reqs {
		assert.Equal(t, "why", q.Prompt)
	}
}

func TestPromptMirrorsEntry(t *testing.T) {
	o, _ := newTestOverlay(t)
	assert.Empty(t, o.Prompt())
	test.Type(o.prompt, "hello")
	assert.Equal(t, "hello", o.Prompt())
}

func TestSubmitModelResolvesFuzzy(t *testing.T) {
	o, r := newTestOverlay(t)
	o.submitModel("gemini-2.5-pro")

	require.Len(t, r.reqs, 1)
	assert.Equal(t, control.OpSetModel, r.reqs[0].Op)
	assert.Equal(t, "gemini-2.5-pro", r.reqs[0].Model)
}

func TestSetModelDoesNotEcho(t *testing.T) {
	o, r := newTestOverlay(t)
	o.SetModel("gemini-2.5-pro")

	assert.Eventually(t, func() bool { return o.model.Text == "gemini-2.5-pro" }, time.Second, 10*time.Millisecond)
	assert.Empty(t, r.ops())
}

func TestBusyPosterUpdatesStatus(t *testing.T) {
	o, r := newTestOverlay(t)
	r.busy = true
	test.Tap(o.askButton)

	assert.Eventually(t, func() bool { return o.status.Text == "Busy, please retry" }, time.Second, 10*time.Millisecond)
}

func TestPresenter(t *testing.T) {
	o, _ := newTestOverlay(t)

	o.QueueChanged(3)
	assert.Eventually(t, func() bool { return o.queue.Text == "Queue: 3" }, time.Second, 10*time.Millisecond)

	o.ShowError("Ask", errors.New("no key"))
	assert.Eventually(t, func() bool { return o.status.Text == "Ask: no key" }, time.Second, 10*time.Millisecond)

	o.ShowResult("Answer", "**42**")
	assert.Eventually(t, func() bool { return o.status.Text == "Answer" }, time.Second, 10*time.Millisecond)
	assert.Contains(t, o.answer.String(), "42")

	o.VisibilityChanged(false)
	assert.Eventually(t, func() bool { return o.status.Text == "Hidden: clicks pass through" }, time.Second, 10*time.Millisecond)
}

func TestSendWithoutPoster(t *testing.T) {
	o := newWithApp(test.NewTempApp(t), "test")
	assert.NotPanics(t, func() { o.send(control.Request{Op: control.OpToggle}) })
}
