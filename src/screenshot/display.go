package screenshot

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// DisplayScreens enumerates the real displays through kbinani/screenshot.
type DisplayScreens struct{}

func (DisplayScreens) Enumerate() ([]Screen, error) {
	n := screenshot.NumActiveDisplays()
	screens := make([]Screen, 0, n)
	for i := 0; i < n; i++ {
		screens = append(screens, display{index: i})
	}
	return screens, nil
}

type display struct {
	index int
}

func (d display) bounds() image.Rectangle {
	return screenshot.GetDisplayBounds(d.index)
}

func (d display) CaptureFull() (Raw, error) {
	img, err := screenshot.CaptureDisplay(d.index)
	if err != nil {
		return Raw{}, err
	}
	return fromRGBA(img), nil
}

func (d display) CaptureRegion(region Region) (Raw, error) {
	origin := d.bounds().Min
	rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height).Add(origin)
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return Raw{}, fmt.Errorf("capture %v: %w", rect, err)
	}
	return fromRGBA(img), nil
}

// fromRGBA copies an image into tightly packed rows.
func fromRGBA(img *image.RGBA) Raw {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		start := y * img.Stride
		pix = append(pix, img.Pix[start:start+w*4]...)
	}
	return Raw{Pix: pix, Width: w, Height: h}
}

// GetDisplayBounds returns the bounds of the primary display
func GetDisplayBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}
