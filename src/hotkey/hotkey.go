package hotkey

import (
	"log"
	"sync"
	"sync/atomic"

	gohook "github.com/robotn/gohook"

	"stealth-overlay/src/control"
)

type keyGroup struct {
	name     string
	rawcodes []uint16
}

type combo struct {
	binding Binding
	keys    []keyGroup
	// trigger is the non-modifier key; the combo fires when it goes down.
	trigger keyGroup
}

// matcher tracks held keys and resolves key-down events to bindings.
type matcher struct {
	mu      sync.Mutex
	pressed map[uint16]bool
	combos  []combo
}

func newMatcher(bindings []Binding) *matcher {
	m := &matcher{pressed: map[uint16]bool{}}
	for _, b := range bindings {
		c, ok := compile(b)
		if !ok {
			log.Printf("hotkey: ignoring %s binding %q", b.Action, b.Combo)
			continue
		}
		m.combos = append(m.combos, c)
	}
	return m
}

func compile(b Binding) (combo, bool) {
	c := combo{binding: b}
	haveTrigger := false
	for _, name := range parseHotkey(b.Combo) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return combo{}, false
		}
		g := keyGroup{name: name, rawcodes: codes}
		c.keys = append(c.keys, g)
		if !isModifier(name) {
			if haveTrigger {
				return combo{}, false
			}
			c.trigger = g
			haveTrigger = true
		}
	}
	return c, haveTrigger
}

// keyDown records raw as held and returns the bindings it completes. When
// several combos match, only those with the most keys fire, so Ctrl+Shift+Enter
// does not also fire Ctrl+Enter. Auto-repeat fires again while held.
func (m *matcher) keyDown(raw uint16) []Binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pressed[raw] = true

	var fired []Binding
	best := 0
	for _, c := range m.combos {
		if !contains(c.trigger.rawcodes, raw) || !m.allHeld(c) {
			continue
		}
		switch {
		case len(c.keys) > best:
			best = len(c.keys)
			fired = []Binding{c.binding}
		case len(c.keys) == best:
			fired = append(fired, c.binding)
		}
	}
	return fired
}

func (m *matcher) keyUp(raw uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pressed, raw)
}

func (m *matcher) allHeld(c combo) bool {
	for _, g := range c.keys {
		held := false
		for _, code := range g.rawcodes {
			if m.pressed[code] {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return true
}

func contains(codes []uint16, raw uint16) bool {
	for _, c := range codes {
		if c == raw {
			return true
		}
	}
	return false
}

var hooked atomic.Bool

// Listen starts one global keyboard hook and calls callback with the request
// of every binding that fires. It returns immediately.
func Listen(bindings []Binding, callback func(control.Request)) {
	m := newMatcher(bindings)
	if len(m.combos) == 0 {
		log.Printf("hotkey: no usable bindings, hook not started")
		return
	}
	for _, c := range m.combos {
		log.Printf("hotkey: %s -> %s", c.binding.Combo, c.binding.Action)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("hotkey: gohook.Start() returned nil channel")
			return
		}
		hooked.Store(true)
		defer Stop()

		for ev := range evChan {
			switch ev.Kind {
			// KeyHold is the physical press (repeated while held); KeyDown is
			// the typed-character event and is not used for matching.
			case gohook.KeyHold:
				for _, b := range m.keyDown(ev.Rawcode) {
					log.Printf("hotkey: %s fired", b.Action)
					if callback != nil {
						callback(b.Request)
					}
				}
			case gohook.KeyUp:
				m.keyUp(ev.Rawcode)
			}
		}
		log.Printf("hotkey: event channel closed")
	}()
}

// Stop ends the keyboard hook started by Listen. Extra calls are no-ops.
func Stop() {
	if hooked.CompareAndSwap(true, false) {
		gohook.End()
	}
}
