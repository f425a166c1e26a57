package runtimeinit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stealth-overlay/src/config"
)

func writeEnv(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func baseOptions(envPath string) Options {
	return Options{
		LoadOptions:  config.LoadOptions{EnvPathOverride: envPath, APIKeyPathOverride: filepath.Join(filepath.Dir(envPath), "nokey")},
		PortInUse:    func(int) bool { return false },
		SetupLogging: func(bool) {},
	}
}

func TestBootstrapRefusesSecondResident(t *testing.T) {
	t.Setenv("CONTROL_PORT_START", "")
	opts := baseOptions(writeEnv(t, ""))
	var asked int
	opts.PortInUse = func(p int) bool { asked = p; return true }

	res, err := Bootstrap(opts)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
	assert.NotZero(t, asked)
}

func TestBootstrapAppliesOverrides(t *testing.T) {
	opts := baseOptions(writeEnv(t, ""))
	opts.HotkeysFile = "/tmp/keys.toml"
	var fileLogging *bool
	opts.SetupLogging = func(b bool) { fileLogging = &b }

	res, err := Bootstrap(opts)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/keys.toml", res.Config.HotkeysFile)
	require.NotNil(t, fileLogging, "logging is always set up")
	assert.False(t, res.ClipboardReady, "no copy requested")
}

func TestBootstrapClipboard(t *testing.T) {
	t.Setenv("COPY_RESULTS", "true")

	opts := baseOptions(writeEnv(t, ""))
	opts.InitClipboard = func() error { return nil }
	res, err := Bootstrap(opts)
	require.NoError(t, err)
	assert.True(t, res.ClipboardReady)

	opts.InitClipboard = func() error { return errors.New("no display") }
	res, err = Bootstrap(opts)
	require.NoError(t, err, "a missing clipboard is not fatal")
	assert.False(t, res.ClipboardReady)
}
