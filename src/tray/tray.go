// Package tray puts a small menu in the notification area that posts control
// requests to the event loop.
package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"log"
	"sync"

	"stealth-overlay/src/control"
)

// Title is shown as the tray tooltip when idle.
const Title = "Stealth Overlay"

// Item is one menu entry.
type Item struct {
	Label   string
	Tooltip string
	Request control.Request
}

// Items is the tray menu in display order.
var Items = []Item{
	{"Show / hide", "Toggle the overlay", control.Request{Op: control.OpToggle}},
	{"Capture to queue", "Add a screenshot to the queue", control.Request{Op: control.OpEnqueue}},
	{"Clear queue", "Discard queued screenshots", control.Request{Op: control.OpClearQueue}},
	{"Quit", "Shut the overlay down", control.Request{Op: control.OpQuit}},
}

var (
	mu      sync.Mutex
	tooltip = func(string) {}
)

// SetTooltip updates the tray tooltip. It is a no-op before Start.
func SetTooltip(text string) {
	mu.Lock()
	f := tooltip
	mu.Unlock()
	f(text)
}

func setTooltipFunc(f func(string)) {
	mu.Lock()
	tooltip = f
	mu.Unlock()
}

func post(poster func(control.Request) bool, it Item) {
	if !poster(it.Request) {
		log.Printf("tray: %s dropped, event loop busy", it.Request)
	}
}

const iconSize = 32

// IconPNG draws the tray icon: a dark rounded tile with an accent bar.
func IconPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	bg := color.NRGBA{R: 0x20, G: 0x24, B: 0x2c, A: 0xff}
	accent := color.NRGBA{R: 0x3b, G: 0x9e, B: 0xff, A: 0xff}
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			if corner(x, y) {
				continue
			}
			c := bg
			if y >= 20 && y < 24 && x >= 6 && x < 26 {
				c = accent
			}
			if y >= 8 && y < 12 && x >= 6 && x < 20 {
				c = accent
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// corner reports whether (x, y) falls outside a 4px rounded corner.
func corner(x, y int) bool {
	const r = 4
	cx, cy := -1, -1
	switch {
	case x < r && y < r:
		cx, cy = r, r
	case x >= iconSize-r && y < r:
		cx, cy = iconSize-r-1, r
	case x < r && y >= iconSize-r:
		cx, cy = r, iconSize-r-1
	case x >= iconSize-r && y >= iconSize-r:
		cx, cy = iconSize-r-1, iconSize-r-1
	default:
		return false
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy > r*r
}

// IconICO wraps IconPNG in a single-image ICO container, which the Windows
// tray requires.
func IconICO() []byte {
	p := IconPNG()
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(p)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(p)
	return buf.Bytes()
}
