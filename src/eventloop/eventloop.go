package eventloop

import (
	"context"
	"fmt"
	"log"

	"stealth-overlay/src/control"
	"stealth-overlay/src/worker"
)

// Presenter is the on-screen side of the loop. Calls arrive on the loop
// goroutine; implementations marshal onto their UI thread themselves.
type Presenter interface {
	// Prompt returns the text currently typed in the prompt field.
	Prompt() string
	ShowResult(title, text string)
	ShowError(title string, err error)
	QueueChanged(n int)
	VisibilityChanged(visible bool)
}

type Options struct {
	Workers int
	// Copy, when set, receives answers to locally triggered inference.
	Copy func(text string) error
	// Status, when set, receives a short busy/idle line for the tray tooltip.
	Status func(text string)
}

// Loop is the single-goroutine coordinator for hotkey, tray, UI and control
// requests. Operations run on the worker pool; their results come back here.
type Loop struct {
	ops       Operations
	pool      *worker.Pool
	srv       control.Server
	presenter Presenter
	opts      Options

	local   chan control.Request
	results chan result
	running int
}

type result struct {
	req    control.Request
	text   string
	err    error
	target resultTarget
}

type resultTarget interface {
	OnSuccess(req control.Request, text string)
	OnError(req control.Request, err error)
	Close()
}

// New creates a loop. srv and presenter may be nil.
func New(ops Operations, srv control.Server, presenter Presenter, opts Options) *Loop {
	return &Loop{
		ops:       ops,
		pool:      worker.New(opts.Workers),
		srv:       srv,
		presenter: presenter,
		opts:      opts,
		local:     make(chan control.Request, 16),
		results:   make(chan result, 16),
	}
}

// Post queues a locally triggered request. It never blocks; a full queue
// drops the request, which the debounce gates make harmless for repeats.
func (l *Loop) Post(req control.Request) bool {
	select {
	case l.local <- req:
		return true
	default:
		log.Printf("eventloop: dropped %s, queue full", req)
		return false
	}
}

// Run serves requests until ctx is cancelled or the overlay quits.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	// Cancelled before the pool drains so no worker is left blocked on results.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var conns <-chan control.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return err
		}
		defer l.srv.Close()
		log.Printf("eventloop: control server on 127.0.0.1:%d", l.srv.Port())
		conns = l.acceptLoop(ctx)
	}
	l.refresh()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ops.Done():
			return nil
		case req := <-l.local:
			if req.NeedsPrompt() && req.Prompt == "" && l.presenter != nil {
				req.Prompt = l.presenter.Prompt()
			}
			l.start(ctx, req, presenterTarget{l: l})
		case conn, ok := <-conns:
			if !ok {
				conns = nil
				continue
			}
			l.start(ctx, conn.Request(), connTarget{conn: conn})
		case res := <-l.results:
			l.finish(res)
		}
	}
}

func (l *Loop) acceptLoop(ctx context.Context) <-chan control.Conn {
	ch := make(chan control.Conn, 4)
	go func() {
		defer close(ch)
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				return
			}
			select {
			case ch <- conn:
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()
	return ch
}

func (l *Loop) start(ctx context.Context, req control.Request, target resultTarget) {
	if req.Op == control.OpQuit {
		target.OnSuccess(req, "")
		target.Close()
		l.ops.Quit()
		return
	}

	task, err := taskFor(l.ops, req)
	if err != nil {
		target.OnError(req, err)
		target.Close()
		return
	}

	submitted := l.pool.Submit(ctx, req.Op, task, func(text string, err error) {
		select {
		case l.results <- result{req: req, text: text, err: err, target: target}:
		case <-ctx.Done():
			target.Close()
		}
	})
	if !submitted {
		target.OnError(req, fmt.Errorf("busy, please retry"))
		target.Close()
		return
	}
	l.setRunning(l.running + 1)
}

func (l *Loop) finish(res result) {
	l.setRunning(l.running - 1)
	defer res.target.Close()

	if res.err != nil {
		log.Printf("eventloop: %s failed: %v", res.req, res.err)
		res.target.OnError(res.req, res.err)
	} else {
		res.target.OnSuccess(res.req, res.text)
	}
	l.refresh()
}

func (l *Loop) setRunning(n int) {
	l.running = n
	if l.opts.Status == nil {
		return
	}
	if n > 0 {
		l.opts.Status(fmt.Sprintf("Stealth Overlay: %d running", n))
	} else {
		l.opts.Status("Stealth Overlay")
	}
}

func (l *Loop) refresh() {
	if l.presenter == nil {
		return
	}
	l.presenter.QueueChanged(l.ops.QueueLength())
	l.presenter.VisibilityChanged(l.ops.Visible())
}

// connTarget replies to a control client.
type connTarget struct {
	conn control.Conn
}

func (t connTarget) OnSuccess(_ control.Request, text string) {
	if err := t.conn.RespondSuccess(text); err != nil {
		log.Printf("eventloop: reply failed: %v", err)
	}
}

func (t connTarget) OnError(_ control.Request, err error) {
	if rerr := t.conn.RespondError(err.Error()); rerr != nil {
		log.Printf("eventloop: reply failed: %v", rerr)
	}
}

func (t connTarget) Close() { _ = t.conn.Close() }

// presenterTarget shows results of hotkey, tray and UI requests on screen.
type presenterTarget struct {
	l *Loop
}

var titles = map[string]string{
	control.OpAsk:           "Answer",
	control.OpAskImage:      "Answer",
	control.OpAskQueue:      "Queue answer",
	control.OpBeast:         "Beast mode",
	control.OpCaptureRegion: "Captured",
	control.OpCaptureFull:   "Captured",
}

func (t presenterTarget) OnSuccess(req control.Request, text string) {
	title, shown := titles[req.Op]
	if !shown || t.l.presenter == nil {
		return
	}
	if req.NeedsPrompt() && t.l.opts.Copy != nil {
		if err := t.l.opts.Copy(text); err != nil {
			log.Printf("eventloop: copy to clipboard failed: %v", err)
		}
	}
	t.l.presenter.ShowResult(title, text)
}

func (t presenterTarget) OnError(req control.Request, err error) {
	if t.l.presenter == nil {
		return
	}
	t.l.presenter.ShowError(req.Op+" failed", err)
}

func (presenterTarget) Close() {}
