//go:build windows

package notification

import (
	"log"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// ShowBlockingError shows a modal error box. Used before any window exists.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return
	}
	win.MessageBox(0, m, t, win.MB_OK|win.MB_ICONERROR|win.MB_TOPMOST)
}
