package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	s := New(path)
	s.mirror = nil
	return s, path
}

func TestSetWritesEnvAndDotenv(t *testing.T) {
	s, path := newTestStore(t)
	t.Setenv("OVERLAY_TEST_SECRET", "")

	require.NoError(t, s.Set("OVERLAY_TEST_SECRET", "abc123"))

	assert.Equal(t, "abc123", os.Getenv("OVERLAY_TEST_SECRET"))
	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", values["OVERLAY_TEST_SECRET"])
}

func TestSetKeepsOtherDotenvEntries(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_MODEL=gemini-2.0-flash\n"), 0o600))
	t.Setenv("OVERLAY_TEST_SECRET", "")

	require.NoError(t, s.Set("OVERLAY_TEST_SECRET", "v"))

	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", values["GEMINI_MODEL"])
	assert.Equal(t, "v", values["OVERLAY_TEST_SECRET"])
}

func TestSetEmptyRemoves(t *testing.T) {
	s, path := newTestStore(t)
	t.Setenv("OVERLAY_TEST_SECRET", "old")
	require.NoError(t, s.Set("OVERLAY_TEST_SECRET", "old"))

	require.NoError(t, s.Set("OVERLAY_TEST_SECRET", ""))

	_, present := os.LookupEnv("OVERLAY_TEST_SECRET")
	assert.False(t, present)
	values, err := godotenv.Read(path)
	require.NoError(t, err)
	_, ok := values["OVERLAY_TEST_SECRET"]
	assert.False(t, ok)
}

func TestMirrorFailureStillUpdatesEnv(t *testing.T) {
	s, _ := newTestStore(t)
	s.mirror = func(string, string) error { return errors.New("registry unavailable") }
	t.Setenv("OVERLAY_TEST_SECRET", "")

	err := s.Set("OVERLAY_TEST_SECRET", "x")

	assert.Error(t, err)
	assert.Equal(t, "x", os.Getenv("OVERLAY_TEST_SECRET"))
}

func TestNoEnvPathSkipsFile(t *testing.T) {
	s := New("")
	s.mirror = nil
	t.Setenv("OVERLAY_TEST_SECRET", "")

	require.NoError(t, s.Set("OVERLAY_TEST_SECRET", "y"))
	assert.Equal(t, "y", os.Getenv("OVERLAY_TEST_SECRET"))
}
