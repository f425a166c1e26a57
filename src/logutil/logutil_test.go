package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "********", RedactKey("short"))
	assert.Equal(t, "AIza...wxyz", RedactKey("AIzaSyABCDEFGwxyz"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, `line one\nline two`, Sanitize("line one\nline two"))

	long := strings.Repeat("a", 500)
	got := Sanitize(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, maxTextLen+3)
}

func TestRotatingWriterShiftsArchives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	w, err := OpenRotating(path, 16)
	require.NoError(t, err)

	_, err = w.Write([]byte("0123456789\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefghij\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	archived, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "0123456789\n", string(archived))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij\n", string(current))
}
