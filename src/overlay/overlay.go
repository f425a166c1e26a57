package overlay

import (
	"fmt"
	"log"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"stealth-overlay/src/control"
	"stealth-overlay/src/llm"
	"stealth-overlay/src/window"
)

const (
	AppID         = "dev.stealth-overlay"
	DefaultWidth  = 420
	DefaultHeight = 520
)

// Overlay is the frameless window holding the prompt, the controls and the
// answer pane. It presents results for the event loop and is the window.Host
// the visibility controller drives.
type Overlay struct {
	app  fyne.App
	win  fyne.Window
	host *nativeHost

	postMu sync.RWMutex
	post   func(control.Request) bool

	promptMu   sync.RWMutex
	promptText string

	prompt    *widget.Entry
	model     *widget.SelectEntry
	primary   *widget.Entry
	secondary *widget.Entry
	queue     *widget.Label
	status    *widget.Label
	answer    *widget.RichText

	askButton   *widget.Button
	queueButton *widget.Button
	beastButton *widget.Button
}

// New creates the overlay on a fresh fyne app.
func New(title string) *Overlay {
	return newWithApp(fyneapp.NewWithID(AppID), title)
}

func newWithApp(a fyne.App, title string) *Overlay {
	var w fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok {
		w = drv.CreateSplashWindow()
		w.SetTitle(title)
	} else {
		w = a.NewWindow(title)
	}
	w.Resize(fyne.NewSize(DefaultWidth, DefaultHeight))

	o := &Overlay{app: a, win: w}
	o.host = newNativeHost(w)
	o.build()
	return o
}

// SetPoster sets where UI actions are sent, normally eventloop.Loop.Post.
func (o *Overlay) SetPoster(post func(control.Request) bool) {
	o.postMu.Lock()
	defer o.postMu.Unlock()
	o.post = post
}

// Host returns the window capability for window.Controller.
func (o *Overlay) Host() window.Host { return o.host }

func (o *Overlay) App() fyne.App { return o.app }

// Run shows the window and blocks in the UI loop. onStarted runs once the
// native window exists.
func (o *Overlay) Run(onStarted func()) {
	o.app.Lifecycle().SetOnStarted(func() {
		o.host.attach()
		if onStarted != nil {
			onStarted()
		}
	})
	o.win.ShowAndRun()
}

// Quit stops the UI loop.
func (o *Overlay) Quit() {
	fyne.Do(o.app.Quit)
}

func (o *Overlay) send(req control.Request) {
	o.postMu.RLock()
	post := o.post
	o.postMu.RUnlock()
	if post == nil {
		log.Printf("overlay: no receiver for %s", req)
		return
	}
	if !post(req) {
		o.setStatus("Busy, please retry")
	}
}

func (o *Overlay) build() {
	o.prompt = widget.NewMultiLineEntry()
	o.prompt.SetPlaceHolder("Prompt")
	o.prompt.SetMinRowsVisible(3)
	o.prompt.OnChanged = func(s string) {
		o.promptMu.Lock()
		o.promptText = s
		o.promptMu.Unlock()
	}

	o.model = widget.NewSelectEntry(llm.KnownModels)
	o.model.SetPlaceHolder("Model")
	o.model.OnSubmitted = func(s string) { o.submitModel(s) }
	o.model.OnChanged = func(s string) {
		for _, m := range llm.KnownModels {
			if s == m {
				o.submitModel(s)
				return
			}
		}
	}

	o.primary = widget.NewPasswordEntry()
	o.primary.SetPlaceHolder("Gemini API key")
	o.secondary = widget.NewPasswordEntry()
	o.secondary.SetPlaceHolder("Hugging Face token")
	saveKeys := widget.NewButton("Save keys", func() {
		o.send(control.Request{Op: control.OpSetPrimaryKey, Key: o.primary.Text})
		o.send(control.Request{Op: control.OpSetSecondaryKey, Key: o.secondary.Text})
		o.primary.SetText("")
		o.secondary.SetText("")
		o.setStatus("Keys saved")
	})

	o.queue = widget.NewLabel("Queue: 0")
	o.status = widget.NewLabel("")
	o.status.Wrapping = fyne.TextWrapWord
	o.answer = widget.NewRichTextFromMarkdown("")
	o.answer.Wrapping = fyne.TextWrapWord

	o.askButton = widget.NewButton("Ask", func() {
		o.send(control.Request{Op: control.OpAsk, Prompt: o.Prompt()})
	})
	attach := widget.NewButton("Ask with image...", func() { o.pickImage() })
	capture := widget.NewButton("Capture", func() {
		o.send(control.Request{Op: control.OpEnqueue})
	})
	clearQueue := widget.NewButton("Clear", func() {
		o.send(control.Request{Op: control.OpClearQueue})
	})
	o.queueButton = widget.NewButton("Ask queue", func() {
		o.send(control.Request{Op: control.OpAskQueue, Prompt: o.Prompt()})
	})
	o.beastButton = widget.NewButton("Beast mode", func() {
		o.send(control.Request{Op: control.OpBeast, Prompt: o.Prompt()})
	})
	hide := widget.NewButton("Hide", func() {
		o.send(control.Request{Op: control.OpToggle})
	})
	quit := widget.NewButton("Quit", func() {
		o.send(control.Request{Op: control.OpQuit})
	})

	settings := widget.NewAccordion(widget.NewAccordionItem("Settings",
		container.NewVBox(o.model, o.primary, o.secondary, saveKeys)))

	top := container.NewVBox(
		o.prompt,
		container.NewGridWithColumns(2, o.askButton, attach),
		container.NewGridWithColumns(3, capture, clearQueue, o.queue),
		container.NewGridWithColumns(2, o.queueButton, o.beastButton),
		settings,
		o.status,
	)
	bottom := container.NewGridWithColumns(2, hide, quit)
	o.win.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewVScroll(o.answer)))
}

func (o *Overlay) submitModel(s string) {
	model := llm.ResolveModel(s)
	if model == "" {
		return
	}
	o.send(control.Request{Op: control.OpSetModel, Model: model})
	o.setStatus("Model: " + model)
}

func (o *Overlay) pickImage() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			o.ShowError("Open image", err)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		_ = r.Close()
		o.send(control.Request{Op: control.OpAskImage, Prompt: o.Prompt(), Path: path})
	}, o.win)
	d.Show()
}

func (o *Overlay) setStatus(text string) {
	fyne.Do(func() { o.status.SetText(text) })
}

// SetModel shows the active model in the selector without sending it back.
func (o *Overlay) SetModel(model string) {
	fyne.Do(func() {
		cb := o.model.OnChanged
		o.model.OnChanged = nil
		o.model.SetText(model)
		o.model.OnChanged = cb
	})
}

// Prompt returns the prompt text. Safe from any goroutine.
func (o *Overlay) Prompt() string {
	o.promptMu.RLock()
	defer o.promptMu.RUnlock()
	return o.promptText
}

func (o *Overlay) ShowResult(title, text string) {
	fyne.Do(func() {
		o.answer.ParseMarkdown(text)
		o.status.SetText(title)
	})
}

func (o *Overlay) ShowError(title string, err error) {
	fyne.Do(func() {
		o.status.SetText(fmt.Sprintf("%s: %v", title, err))
	})
}

func (o *Overlay) QueueChanged(n int) {
	fyne.Do(func() {
		o.queue.SetText("Queue: " + strconv.Itoa(n))
	})
}

func (o *Overlay) VisibilityChanged(visible bool) {
	fyne.Do(func() {
		if visible {
			o.status.SetText("")
			return
		}
		o.status.SetText("Hidden: clicks pass through")
	})
}
