package window

import (
	"fmt"
	"log"
	"sync/atomic"

	"stealth-overlay/src/debounce"
)

// DefaultNudgeStep is used when a nudge asks for a zero step.
const DefaultNudgeStep = 50

// Point is a physical screen position.
type Point struct {
	X int
	Y int
}

// Size is a window or monitor extent.
type Size struct {
	Width  int
	Height int
}

// Host is the windowing capability the controller drives. Implementations are
// expected to be thin delegations to the platform window.
type Host interface {
	SetAlwaysOnTop(on bool) error
	SetDecorations(on bool) error
	SetContentProtected(on bool) error
	SetSkipTaskbar(skip bool) error
	SetIgnoreCursorEvents(ignore bool) error

	Position() (Point, error)
	SetPosition(p Point) error
	OuterSize() (Size, error)
	SetSize(s Size) error
	MonitorSize() (Size, error)
}

// Direction is a cardinal nudge direction.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Anchor is a named window placement on the primary monitor.
type Anchor string

const (
	TopLeft     Anchor = "top-left"
	TopRight    Anchor = "top-right"
	BottomLeft  Anchor = "bottom-left"
	BottomRight Anchor = "bottom-right"
	Center      Anchor = "center"
)

// Controller owns the overlay's visible/click-through state.
type Controller struct {
	host       Host
	visible    atomic.Bool
	toggleGate *debounce.Gate
	nudgeGate  *debounce.Gate
}

// New returns a controller in the visible state with the standard gates.
func New(host Host) *Controller {
	return NewWithGates(host, debounce.New(debounce.ToggleInterval), debounce.New(debounce.NudgeInterval))
}

func NewWithGates(host Host, toggle, nudge *debounce.Gate) *Controller {
	c := &Controller{host: host, toggleGate: toggle, nudgeGate: nudge}
	c.visible.Store(true)
	return c
}

// Visible reports the last confirmed toggle state.
func (c *Controller) Visible() bool { return c.visible.Load() }

// ApplyInitial styles the window for the visible state without touching the gates.
func (c *Controller) ApplyInitial() {
	c.applyVisible()
}

// Toggle flips between visible and click-through. A debounced call is a
// silent no-op that reports the current state.
func (c *Controller) Toggle() bool {
	if !c.toggleGate.Allow() {
		return c.visible.Load()
	}

	// CAS loop: concurrent toggles never lose an update.
	for {
		was := c.visible.Load()
		if c.visible.CompareAndSwap(was, !was) {
			if was {
				c.applyHidden()
			} else {
				c.applyVisible()
			}
			log.Printf("window: toggled visible=%v", !was)
			return !was
		}
	}
}

func (c *Controller) applyVisible() {
	logHostErr("always-on-top", c.host.SetAlwaysOnTop(true))
	logHostErr("decorations", c.host.SetDecorations(false))
	logHostErr("content-protection", c.host.SetContentProtected(true))
	logHostErr("skip-taskbar", c.host.SetSkipTaskbar(true))
	logHostErr("cursor-events", c.host.SetIgnoreCursorEvents(false))
}

// The window is already styled, so hiding only stops it taking input.
func (c *Controller) applyHidden() {
	logHostErr("cursor-events", c.host.SetIgnoreCursorEvents(true))
}

func logHostErr(prop string, err error) {
	if err != nil {
		log.Printf("window: failed to set %s: %v", prop, err)
	}
}

// Nudge moves the window by step pixels. A zero step means DefaultNudgeStep.
// Debounced calls return nil without touching the window.
func (c *Controller) Nudge(dir Direction, step int) error {
	if !c.nudgeGate.Allow() {
		return nil
	}
	pos, err := c.host.Position()
	if err != nil {
		return fmt.Errorf("read window position: %w", err)
	}

	delta := step
	if delta == 0 {
		delta = DefaultNudgeStep
	}
	switch dir {
	case Up:
		pos.Y -= delta
	case Down:
		pos.Y += delta
	case Left:
		pos.X -= delta
	case Right:
		pos.X += delta
	}

	if err := c.host.SetPosition(pos); err != nil {
		return fmt.Errorf("set window position: %w", err)
	}
	return nil
}

// MoveTo places the window at a named anchor of the monitor. Unknown anchors
// fall back to (100, 100).
func (c *Controller) MoveTo(anchor Anchor) error {
	screen, err := c.host.MonitorSize()
	if err != nil {
		return fmt.Errorf("read monitor size: %w", err)
	}
	win, err := c.host.OuterSize()
	if err != nil {
		return fmt.Errorf("read window size: %w", err)
	}

	var p Point
	switch anchor {
	case TopLeft:
		p = Point{0, 0}
	case TopRight:
		p = Point{screen.Width - win.Width, 0}
	case BottomLeft:
		p = Point{0, screen.Height - win.Height}
	case BottomRight:
		p = Point{screen.Width - win.Width, screen.Height - win.Height}
	case Center:
		p = Point{(screen.Width - win.Width) / 2, (screen.Height - win.Height) / 2}
	default:
		p = Point{100, 100}
	}

	if err := c.host.SetPosition(p); err != nil {
		return fmt.Errorf("set window position: %w", err)
	}
	return nil
}

// Resize sets the window's outer size.
func (c *Controller) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", width, height)
	}
	return c.host.SetSize(Size{Width: width, Height: height})
}
