package hotkey

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"stealth-overlay/src/control"
)

// Binding ties a key combination to the request it sends.
type Binding struct {
	Action  string
	Combo   string
	Request control.Request
}

// actions are the names usable in a bindings file.
var actions = map[string]control.Request{
	"toggle":      {Op: control.OpToggle},
	"nudge-up":    {Op: control.OpNudge, Direction: "up"},
	"nudge-down":  {Op: control.OpNudge, Direction: "down"},
	"nudge-left":  {Op: control.OpNudge, Direction: "left"},
	"nudge-right": {Op: control.OpNudge, Direction: "right"},
	"enqueue":     {Op: control.OpEnqueue},
	"clear-queue": {Op: control.OpClearQueue},
	"ask-queue":   {Op: control.OpAskQueue},
	"beast":       {Op: control.OpBeast},
	"quit":        {Op: control.OpQuit},
}

// DefaultCombos is the built-in keymap.
var DefaultCombos = map[string]string{
	"toggle":      "Ctrl+B",
	"nudge-up":    "Ctrl+Up",
	"nudge-down":  "Ctrl+Down",
	"nudge-left":  "Ctrl+Left",
	"nudge-right": "Ctrl+Right",
	"enqueue":     "Ctrl+H",
	"clear-queue": "Ctrl+G",
	"ask-queue":   "Ctrl+Enter",
	"beast":       "Ctrl+Shift+Enter",
	"quit":        "Ctrl+Shift+Q",
}

type bindingsFile struct {
	Bindings map[string]string `toml:"bindings"`
}

// LoadBindings returns the default keymap with any overrides from the TOML
// file at path applied. An empty path means defaults only; an empty combo in
// the file disables that action.
func LoadBindings(path string) ([]Binding, error) {
	combos := make(map[string]string, len(DefaultCombos))
	for action, combo := range DefaultCombos {
		combos[action] = combo
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read hotkeys file: %w", err)
		}
		var f bindingsFile
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse hotkeys file %s: %w", path, err)
		}
		for action, combo := range f.Bindings {
			if _, ok := actions[action]; !ok {
				return nil, fmt.Errorf("hotkeys file %s: unknown action %q", path, action)
			}
			combos[action] = strings.TrimSpace(combo)
		}
	}

	names := make([]string, 0, len(combos))
	for action := range combos {
		names = append(names, action)
	}
	sort.Strings(names)

	bindings := make([]Binding, 0, len(names))
	for _, action := range names {
		combo := combos[action]
		if combo == "" {
			continue
		}
		bindings = append(bindings, Binding{Action: action, Combo: combo, Request: actions[action]})
	}
	return bindings, nil
}
