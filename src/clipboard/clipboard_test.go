package clipboard

import (
	"testing"
)

func TestWrite(t *testing.T) {
	// Needs a display; headless runs only log.
	if err := Write("test text"); err != nil {
		t.Logf("Failed to write to clipboard: %v", err)
	}
}

func TestInitIsStable(t *testing.T) {
	first := Init()
	if second := Init(); second != first {
		t.Errorf("Init() = %v on second call, want %v", second, first)
	}
}
