// Package runtimeinit performs the resident's startup checks before any
// window exists.
package runtimeinit

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"stealth-overlay/src/clipboard"
	"stealth-overlay/src/config"
	"stealth-overlay/src/control"
	"stealth-overlay/src/logutil"
	"stealth-overlay/src/notification"
)

// ErrAlreadyRunning means another resident holds the first control port.
var ErrAlreadyRunning = errors.New("an overlay is already running")

type Options struct {
	LoadOptions config.LoadOptions
	// HotkeysFile overrides the configured bindings file when set.
	HotkeysFile string
	Verbose     bool
	// ShowBlockingError reports a failed pre-flight in a dialog.
	ShowBlockingError bool

	// PortInUse defaults to control.PortInUse.
	PortInUse func(port int) bool
	// SetupLogging defaults to logutil.Setup.
	SetupLogging func(enableFileLogging bool)
	// InitClipboard defaults to clipboard.Init.
	InitClipboard func() error
}

// Result is what Bootstrap learned about the environment.
type Result struct {
	Config *config.Config
	// ClipboardReady is false when copying was requested but unavailable.
	ClipboardReady bool
}

// Bootstrap loads configuration, sets up logging and refuses to start a
// second resident.
func Bootstrap(opts Options) (*Result, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.HotkeysFile != "" {
		cfg.HotkeysFile = opts.HotkeysFile
	}

	setup := opts.SetupLogging
	if setup == nil {
		setup = logutil.Setup
	}
	setup(cfg.EnableFileLogging)
	if opts.Verbose {
		log.SetOutput(io.MultiWriter(log.Writer(), os.Stderr))
	}

	inUse := opts.PortInUse
	if inUse == nil {
		inUse = control.PortInUse
	}
	if inUse(cfg.PortStart) {
		err := fmt.Errorf("%w on port %d", ErrAlreadyRunning, cfg.PortStart)
		log.Printf("Pre-flight: %v", err)
		if opts.ShowBlockingError {
			notification.ShowBlockingError("Stealth Overlay", err.Error())
		}
		return nil, err
	}
	log.Printf("Pre-flight: port %d free", cfg.PortStart)

	if cfg.APIKey == "" {
		log.Printf("%s is not set; questions will fail until a key is saved", config.PrimaryKeyEnvVar)
	}

	res := &Result{Config: cfg}
	if cfg.CopyResults {
		initClip := opts.InitClipboard
		if initClip == nil {
			initClip = clipboard.Init
		}
		if err := initClip(); err != nil {
			log.Printf("clipboard unavailable, answers will not be copied: %v", err)
		} else {
			res.ClipboardReady = true
		}
	}
	return res, nil
}
