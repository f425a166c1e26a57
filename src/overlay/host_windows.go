//go:build windows

package overlay

import (
	"errors"
	"log"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"stealth-overlay/src/window"
)

const (
	wdaNone               = 0x00
	wdaExcludeFromCapture = 0x11
	lwaAlpha              = 0x02
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procSetWindowDisplayAffinity   = user32.NewProc("SetWindowDisplayAffinity")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
)

var errNoWindow = errors.New("native window not available yet")

// nativeHost drives the fyne window through its Win32 handle.
type nativeHost struct {
	win  fyne.Window
	hwnd atomic.Uintptr
}

func newNativeHost(w fyne.Window) *nativeHost { return &nativeHost{win: w} }

// attach records the HWND. Must run after the window has been shown.
func (h *nativeHost) attach() {
	nw, ok := h.win.(driver.NativeWindow)
	if !ok {
		log.Printf("overlay: window has no native handle")
		return
	}
	nw.RunNative(func(ctx any) {
		if wc, ok := ctx.(driver.WindowsWindowContext); ok {
			h.hwnd.Store(wc.HWND)
			log.Printf("overlay: attached to HWND 0x%x", wc.HWND)
		}
	})
}

func (h *nativeHost) handle() (win.HWND, error) {
	v := h.hwnd.Load()
	if v == 0 {
		return 0, errNoWindow
	}
	return win.HWND(v), nil
}

func (h *nativeHost) SetAlwaysOnTop(on bool) error {
	hwnd, err := h.handle()
	if err != nil {
		return err
	}
	after := win.HWND_NOTOPMOST
	if on {
		after = win.HWND_TOPMOST
	}
	if !win.SetWindowPos(hwnd, after, 0, 0, 0, 0, win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_NOACTIVATE) {
		return errors.New("SetWindowPos failed")
	}
	return nil
}

func (h *nativeHost) SetDecorations(on bool) error {
	const frame = win.WS_CAPTION | win.WS_THICKFRAME | win.WS_SYSMENU
	return h.updateStyle(win.GWL_STYLE, frame, on)
}

func (h *nativeHost) SetSkipTaskbar(skip bool) error {
	hwnd, err := h.handle()
	if err != nil {
		return err
	}
	ex := uint32(win.GetWindowLong(hwnd, win.GWL_EXSTYLE))
	if skip {
		ex = ex&^win.WS_EX_APPWINDOW | win.WS_EX_TOOLWINDOW
	} else {
		ex = ex&^win.WS_EX_TOOLWINDOW | win.WS_EX_APPWINDOW
	}
	win.SetWindowLong(hwnd, win.GWL_EXSTYLE, int32(ex))
	return h.frameChanged(hwnd)
}

func (h *nativeHost) SetIgnoreCursorEvents(ignore bool) error {
	hwnd, err := h.handle()
	if err != nil {
		return err
	}
	ex := uint32(win.GetWindowLong(hwnd, win.GWL_EXSTYLE))
	if ignore {
		ex |= win.WS_EX_TRANSPARENT | win.WS_EX_LAYERED
	} else {
		ex &^= win.WS_EX_TRANSPARENT
	}
	win.SetWindowLong(hwnd, win.GWL_EXSTYLE, int32(ex))
	if ex&win.WS_EX_LAYERED != 0 {
		// A layered window without attributes is not drawn.
		procSetLayeredWindowAttributes.Call(uintptr(hwnd), 0, 255, lwaAlpha)
	}
	return nil
}

func (h *nativeHost) SetContentProtected(on bool) error {
	hwnd, err := h.handle()
	if err != nil {
		return err
	}
	affinity := uintptr(wdaNone)
	if on {
		affinity = wdaExcludeFromCapture
	}
	if r, _, callErr := procSetWindowDisplayAffinity.Call(uintptr(hwnd), affinity); r == 0 {
		return callErr
	}
	return nil
}

func (h *nativeHost) Position() (window.Point, error) {
	r, err := h.rect()
	if err != nil {
		return window.Point{}, err
	}
	return window.Point{X: int(r.Left), Y: int(r.Top)}, nil
}

func (h *nativeHost) SetPosition(p window.Point) error {
	hwnd, err := h.handle()
	if err != nil {
		return err
	}
	if !win.SetWindowPos(hwnd, 0, int32(p.X), int32(p.Y), 0, 0, win.SWP_NOSIZE|win.SWP_NOZORDER|win.SWP_NOACTIVATE) {
		return errors.New("SetWindowPos failed")
	}
	return nil
}

func (h *nativeHost) OuterSize() (window.Size, error) {
	r, err := h.rect()
	if err != nil {
		return window.Size{}, err
	}
	return window.Size{Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}, nil
}

func (h *nativeHost) SetSize(s window.Size) error {
	hwnd, err := h.handle()
	if err != nil {
		return err
	}
	if !win.SetWindowPos(hwnd, 0, 0, 0, int32(s.Width), int32(s.Height), win.SWP_NOMOVE|win.SWP_NOZORDER|win.SWP_NOACTIVATE) {
		return errors.New("SetWindowPos failed")
	}
	return nil
}

func (h *nativeHost) MonitorSize() (window.Size, error) {
	return window.Size{
		Width:  int(win.GetSystemMetrics(win.SM_CXSCREEN)),
		Height: int(win.GetSystemMetrics(win.SM_CYSCREEN)),
	}, nil
}

func (h *nativeHost) rect() (win.RECT, error) {
	var r win.RECT
	hwnd, err := h.handle()
	if err != nil {
		return r, err
	}
	if !win.GetWindowRect(hwnd, &r) {
		return r, errors.New("GetWindowRect failed")
	}
	return r, nil
}

func (h *nativeHost) updateStyle(index int32, bits uint32, set bool) error {
	hwnd, err := h.handle()
	if err != nil {
		return err
	}
	style := uint32(win.GetWindowLong(hwnd, index))
	if set {
		style |= bits
	} else {
		style &^= bits
	}
	win.SetWindowLong(hwnd, index, int32(style))
	return h.frameChanged(hwnd)
}

func (h *nativeHost) frameChanged(hwnd win.HWND) error {
	if !win.SetWindowPos(hwnd, 0, 0, 0, 0, 0, win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_NOZORDER|win.SWP_NOACTIVATE|win.SWP_FRAMECHANGED) {
		return errors.New("SetWindowPos failed")
	}
	return nil
}
