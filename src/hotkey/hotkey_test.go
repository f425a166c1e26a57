package hotkey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stealth-overlay/src/control"
)

const (
	vkCtrl  = 162
	vkShift = 160
	vkEnter = 13
	vkB     = 66
	vkUp    = 38
)

func defaultMatcher(t *testing.T) *matcher {
	t.Helper()
	bindings, err := LoadBindings("")
	require.NoError(t, err)
	return newMatcher(bindings)
}

func actionsOf(bs []Binding) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Action)
	}
	return out
}

func TestComboFiresOnTriggerKey(t *testing.T) {
	m := defaultMatcher(t)

	assert.Empty(t, m.keyDown(vkCtrl))
	assert.Equal(t, []string{"toggle"}, actionsOf(m.keyDown(vkB)))
}

func TestHeldComboRepeats(t *testing.T) {
	m := defaultMatcher(t)
	m.keyDown(vkCtrl)

	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"nudge-up"}, actionsOf(m.keyDown(vkUp)))
	}
}

func TestReleasedModifierStopsCombo(t *testing.T) {
	m := defaultMatcher(t)
	m.keyDown(vkCtrl)
	m.keyUp(vkCtrl)

	assert.Empty(t, m.keyDown(vkB))
}

func TestLongestComboWins(t *testing.T) {
	m := defaultMatcher(t)
	m.keyDown(vkCtrl)
	assert.Equal(t, []string{"ask-queue"}, actionsOf(m.keyDown(vkEnter)))

	m.keyUp(vkEnter)
	m.keyDown(vkShift)
	assert.Equal(t, []string{"beast"}, actionsOf(m.keyDown(vkEnter)))
}

func TestRightModifierVariant(t *testing.T) {
	m := defaultMatcher(t)
	m.keyDown(163)
	assert.Equal(t, []string{"toggle"}, actionsOf(m.keyDown(vkB)))
}

func TestLoadBindingsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotkeys.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bindings]\ntoggle = \"Alt+F9\"\nquit = \"\"\n"), 0o600))

	bindings, err := LoadBindings(path)
	require.NoError(t, err)

	byAction := map[string]Binding{}
	for _, b := range bindings {
		byAction[b.Action] = b
	}
	assert.Equal(t, "Alt+F9", byAction["toggle"].Combo)
	assert.Equal(t, control.Request{Op: control.OpToggle}, byAction["toggle"].Request)
	_, hasQuit := byAction["quit"]
	assert.False(t, hasQuit, "empty combo disables the action")
	assert.Equal(t, "Ctrl+H", byAction["enqueue"].Combo)
}

func TestLoadBindingsUnknownAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotkeys.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bindings]\nexplode = \"Ctrl+X\"\n"), 0o600))

	_, err := LoadBindings(path)
	assert.ErrorContains(t, err, "unknown action")
}

func TestCompileRejectsModifierOnly(t *testing.T) {
	_, ok := compile(Binding{Action: "toggle", Combo: "Ctrl+Shift"})
	assert.False(t, ok)
	_, ok = compile(Binding{Action: "toggle", Combo: "Ctrl+A+B"})
	assert.False(t, ok)
}
