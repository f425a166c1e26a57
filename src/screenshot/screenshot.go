package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	overlayerrors "stealth-overlay/src/errors"
)

// ScratchDirName is the directory under the OS temp dir that holds captures.
const ScratchDirName = "stealth_overlay"

// Region represents a screen region to capture, relative to the screen origin.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Raw is an unconverted capture: RGBA bytes, 4 per pixel, row-major.
type Raw struct {
	Pix    []byte
	Width  int
	Height int
}

// Screen captures pixels from one display.
type Screen interface {
	CaptureFull() (Raw, error)
	CaptureRegion(region Region) (Raw, error)
}

// Screens lists the attached displays, primary first.
type Screens interface {
	Enumerate() ([]Screen, error)
}

// Service turns screen captures into PNG files in a scratch directory.
type Service struct {
	screens Screens
	dir     string
}

// DefaultScratchDir returns $TMPDIR/stealth_overlay.
func DefaultScratchDir() string {
	return filepath.Join(os.TempDir(), ScratchDirName)
}

// New returns a service writing into dir. An empty dir means DefaultScratchDir.
func New(screens Screens, dir string) *Service {
	if dir == "" {
		dir = DefaultScratchDir()
	}
	return &Service{screens: screens, dir: dir}
}

// Dir returns the scratch directory.
func (s *Service) Dir() string { return s.dir }

// CaptureRegion captures a rectangle of the primary screen and returns the file path.
func (s *Service) CaptureRegion(region Region) (string, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return "", overlayerrors.NewInvalidRequest(fmt.Sprintf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height))
	}
	screen, err := s.primary()
	if err != nil {
		return "", err
	}
	raw, err := screen.CaptureRegion(region)
	if err != nil {
		return "", overlayerrors.NewCapture("region", err)
	}
	// Reinterpret at the requested dimensions.
	raw.Width, raw.Height = region.Width, region.Height
	return s.persist(raw)
}

// CaptureFullScreen captures the whole primary screen and returns the file path.
func (s *Service) CaptureFullScreen() (string, error) {
	screen, err := s.primary()
	if err != nil {
		return "", err
	}
	raw, err := screen.CaptureFull()
	if err != nil {
		return "", overlayerrors.NewCapture("screen", err)
	}
	return s.persist(raw)
}

func (s *Service) primary() (Screen, error) {
	screens, err := s.screens.Enumerate()
	if err != nil {
		return nil, overlayerrors.NewCapture("screen list", err)
	}
	if len(screens) == 0 {
		return nil, overlayerrors.NewNoScreen()
	}
	return screens[0], nil
}

func (s *Service) persist(raw Raw) (string, error) {
	img, err := ToImage(raw)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, uuid.NewString()+".png")
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Printf("screenshot: could not create %s: %v", s.dir, err)
	}
	if err := savePNG(img, path); err != nil {
		return "", overlayerrors.NewEncode(path, err)
	}
	log.Printf("screenshot: saved %dx%d capture to %s", raw.Width, raw.Height, path)
	return path, nil
}

// ToImage reinterprets raw bytes as an RGBA image of the raw dimensions.
func ToImage(raw Raw) (*image.RGBA, error) {
	if raw.Width <= 0 || raw.Height <= 0 || len(raw.Pix) != raw.Width*raw.Height*4 {
		return nil, overlayerrors.NewBufferConversion(raw.Width, raw.Height, len(raw.Pix))
	}
	return &image.RGBA{
		Pix:    raw.Pix,
		Stride: raw.Width * 4,
		Rect:   image.Rect(0, 0, raw.Width, raw.Height),
	}, nil
}

func savePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
