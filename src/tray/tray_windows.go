//go:build windows

package tray

import (
	"runtime"

	"fyne.io/fyne/v2"
	"github.com/getlantern/systray"

	"stealth-overlay/src/control"
)

// Start runs the native tray on its own locked thread. The fyne app is unused
// on Windows.
func Start(_ fyne.App, poster func(control.Request) bool) {
	go func() {
		runtime.LockOSThread()
		systray.Run(func() { onReady(poster) }, func() {})
	}()
}

func onReady(poster func(control.Request) bool) {
	systray.SetIcon(IconICO())
	systray.SetTitle(Title)
	systray.SetTooltip(Title)
	setTooltipFunc(systray.SetTooltip)

	for _, it := range Items {
		m := systray.AddMenuItem(it.Label, it.Tooltip)
		go func(it Item, m *systray.MenuItem) {
			for range m.ClickedCh {
				post(poster, it)
			}
		}(it, m)
	}
}

// Stop removes the tray icon.
func Stop() { systray.Quit() }
