//go:build !windows

package overlay

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stealth-overlay/src/window"
)

func TestPortableHostTracksGeometry(t *testing.T) {
	o := newWithApp(test.NewTempApp(t), "test")
	h := o.Host()

	require.NoError(t, h.SetPosition(window.Point{X: 5, Y: 6}))
	p, err := h.Position()
	require.NoError(t, err)
	assert.Equal(t, window.Point{X: 5, Y: 6}, p)

	require.NoError(t, h.SetSize(window.Size{Width: 300, Height: 200}))
	s, err := h.OuterSize()
	require.NoError(t, err)
	assert.Equal(t, window.Size{Width: 300, Height: 200}, s)

	assert.ErrorIs(t, h.SetAlwaysOnTop(true), errUnsupported)
	assert.NoError(t, h.SetDecorations(false))
}
