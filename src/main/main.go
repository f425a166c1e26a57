package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stealth-overlay/src/app"
	"stealth-overlay/src/clipboard"
	"stealth-overlay/src/config"
	"stealth-overlay/src/control"
	"stealth-overlay/src/escalate"
	"stealth-overlay/src/eventloop"
	"stealth-overlay/src/hotkey"
	"stealth-overlay/src/llm"
	"stealth-overlay/src/notification"
	"stealth-overlay/src/overlay"
	"stealth-overlay/src/queue"
	"stealth-overlay/src/runtimeinit"
	"stealth-overlay/src/screenshot"
	"stealth-overlay/src/secrets"
	"stealth-overlay/src/tray"
	"stealth-overlay/src/window"
)

const appTitle = "Stealth Overlay"

type options struct {
	envPath    string
	apiKeyPath string
	hotkeys    string
	verbose    bool
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"stealth-overlay"}
	}
	opts := &options{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stealth-overlay",
		Short:         "Always-on-top assistant overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(*opts)
		},
	}
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to the .env file (highest precedence)")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to the primary API key file")
	cmd.Flags().StringVar(&opts.hotkeys, "hotkeys", "", "TOML file overriding the default hotkeys")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to their cobra form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		for _, name := range []string{"env", "api-key-path", "hotkeys", "verbose"} {
			if out[i] == "-"+name || strings.HasPrefix(out[i], "-"+name+"=") {
				out[i] = "-" + out[i]
			}
		}
	}
	return out
}

func runResident(opts options) error {
	enableDPIAwareness()

	boot, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride: opts.apiKeyPath,
			EnvPathOverride:    opts.envPath,
		},
		HotkeysFile:       opts.hotkeys,
		Verbose:           opts.verbose,
		ShowBlockingError: true,
	})
	if err != nil {
		return err
	}
	cfg := boot.Config
	logMonitorConfiguration()

	bindings, err := hotkey.LoadBindings(cfg.HotkeysFile)
	if err != nil {
		return fmt.Errorf("failed to load hotkeys: %w", err)
	}

	rt := config.NewRuntime(cfg, secrets.New(cfg.EnvPath))
	shots := screenshot.New(screenshot.DisplayScreens{}, cfg.ScratchDir)
	ov := overlay.New(appTitle)
	win := window.New(ov.Host())

	client, err := llm.NewClient(llm.NewOpenAIProvider(cfg.PrimaryBaseURL), rt)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ops := app.New(app.Deps{
		Window:   win,
		Queue:    queue.New(shots.CaptureFullScreen),
		Capture:  shots,
		Config:   rt,
		LLM:      client,
		Pipeline: escalate.New(client, rt, cfg.SecondaryEndpoint),
		OnQuit: func() {
			hotkey.Stop()
			tray.Stop()
			ov.Quit()
		},
	})

	loopOpts := eventloop.Options{Workers: cfg.Workers, Status: tray.SetTooltip}
	if boot.ClipboardReady {
		loopOpts.Copy = clipboard.Write
	}
	loop := eventloop.New(ops, control.NewServer(cfg.PortStart, cfg.PortEnd), ov, loopOpts)
	ov.SetPoster(loop.Post)
	ov.SetModel(rt.Model())

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			ops.Quit()
		case <-ops.Done():
		}
	}()

	log.Printf("%s starting: model=%s ports=%d-%d workers=%d", appTitle, rt.Model(), cfg.PortStart, cfg.PortEnd, cfg.Workers)

	ov.Run(func() {
		win.ApplyInitial()
		tray.Start(ov.App(), loop.Post)
		hotkey.Listen(bindings, func(req control.Request) { loop.Post(req) })
		go func() {
			if err := loop.Run(ctx); err != nil {
				log.Printf("event loop stopped: %v", err)
				notification.ShowBlockingError(appTitle, fmt.Sprintf("Control server failed: %v", err))
				ops.Quit()
			}
		}()
	})
	return nil
}
