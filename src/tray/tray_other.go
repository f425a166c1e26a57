//go:build !windows

package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"stealth-overlay/src/control"
)

// Start installs the menu through the fyne desktop tray. Drivers without a
// tray leave the overlay usable through hotkeys and the control port.
func Start(a fyne.App, poster func(control.Request) bool) {
	desk, ok := a.(desktop.App)
	if !ok {
		log.Printf("tray: not supported by this driver")
		return
	}
	items := make([]*fyne.MenuItem, 0, len(Items))
	for _, it := range Items {
		it := it
		items = append(items, fyne.NewMenuItem(it.Label, func() { post(poster, it) }))
	}
	desk.SetSystemTrayMenu(fyne.NewMenu(Title, items...))
	desk.SetSystemTrayIcon(fyne.NewStaticResource("tray.png", IconPNG()))
	setTooltipFunc(func(text string) { log.Printf("tray: %s", text) })
}

func Stop() {}
