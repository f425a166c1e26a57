//go:build !windows

package overlay

import (
	"errors"
	"sync"

	"fyne.io/fyne/v2"

	"stealth-overlay/src/screenshot"
	"stealth-overlay/src/window"
)

var errUnsupported = errors.New("not supported on this platform")

// nativeHost is the portable fallback: size goes through fyne, stacking and
// capture properties are unavailable, and position is tracked but not applied
// since fyne does not expose window placement.
type nativeHost struct {
	win fyne.Window

	mu   sync.Mutex
	pos  window.Point
	size window.Size
}

func newNativeHost(w fyne.Window) *nativeHost {
	return &nativeHost{win: w, size: window.Size{Width: DefaultWidth, Height: DefaultHeight}}
}

func (h *nativeHost) attach() {}

func (h *nativeHost) SetAlwaysOnTop(bool) error        { return errUnsupported }
func (h *nativeHost) SetDecorations(bool) error        { return nil }
func (h *nativeHost) SetContentProtected(bool) error   { return errUnsupported }
func (h *nativeHost) SetSkipTaskbar(bool) error        { return errUnsupported }
func (h *nativeHost) SetIgnoreCursorEvents(bool) error { return errUnsupported }

func (h *nativeHost) Position() (window.Point, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos, nil
}

func (h *nativeHost) SetPosition(p window.Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = p
	return nil
}

func (h *nativeHost) OuterSize() (window.Size, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size, nil
}

func (h *nativeHost) SetSize(s window.Size) error {
	h.mu.Lock()
	h.size = s
	h.mu.Unlock()
	fyne.Do(func() {
		h.win.Resize(fyne.NewSize(float32(s.Width), float32(s.Height)))
	})
	return nil
}

func (h *nativeHost) MonitorSize() (window.Size, error) {
	b, err := screenshot.GetDisplayBounds()
	if err != nil {
		return window.Size{}, err
	}
	return window.Size{Width: b.Dx(), Height: b.Dy()}, nil
}
