package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stealth-overlay/src/config"
	"stealth-overlay/src/control"
	"stealth-overlay/src/llm"
	"stealth-overlay/src/logutil"
	overlaymcp "stealth-overlay/src/mcp"
)

var version = "dev"

// backend is the resident as seen by the CLI.
type backend interface {
	Do(ctx context.Context, req control.Request) (string, error)
}

type cliOptions struct {
	envPath    string
	jsonOutput bool
	verbose    bool
	timeout    time.Duration
}

// cli carries what every subcommand needs.
type cli struct {
	opts    *cliOptions
	connect func(opts cliOptions) (backend, error)
}

func main() {
	if err := runWithArgs(os.Args, connectResident); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string, connect func(cliOptions) (backend, error)) error {
	if len(args) == 0 {
		args = []string{"overlayctl"}
	}
	cmd := newRootCmd(&cli{opts: &cliOptions{}, connect: connect})
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func connectResident(opts cliOptions) (backend, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvPathOverride: opts.envPath})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return control.NewClient(cfg.PortStart, cfg.PortEnd), nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "overlayctl",
		Short:         "Drive a running stealth overlay",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.opts.verbose {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.opts.envPath, "env", "", "Path to the .env file holding the port range")
	pf.BoolVar(&c.opts.jsonOutput, "json", false, "Output results as JSON")
	pf.BoolVarP(&c.opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	pf.DurationVar(&c.opts.timeout, "timeout", 0, "Give up after this long (0 waits for the resident)")

	root.AddCommand(
		c.simple(control.OpToggle, "Toggle between visible and click-through"),
		c.simple(control.OpCaptureFull, "Capture the primary screen and print the PNG path"),
		c.simple(control.OpGetModel, "Print the selected model"),
		c.simple(control.OpEnqueue, "Capture the screen into the snapshot queue"),
		c.simple(control.OpQueueLength, "Print the number of queued snapshots"),
		c.simple(control.OpClearQueue, "Discard every queued snapshot"),
		c.simple(control.OpQuit, "Shut the overlay down"),
		c.moveCmd(), c.nudgeCmd(), c.resizeCmd(), c.captureRegionCmd(),
		c.setKeyCmd(control.OpSetPrimaryKey, "Store the primary inference API key"),
		c.setKeyCmd(control.OpSetSecondaryKey, "Store the escalation API token"),
		c.getKeyCmd(control.OpGetPrimaryKey, "Print the primary API key (redacted)"),
		c.getKeyCmd(control.OpGetSecondaryKey, "Print the escalation token (redacted)"),
		c.setModelCmd(),
		c.promptCmd(control.OpAsk, "Ask a text-only question"),
		c.promptCmd(control.OpAskQueue, "Ask about every queued snapshot"),
		c.promptCmd(control.OpBeast, "Extract queued snapshots and escalate to the secondary model"),
		c.askImageCmd(),
		c.statusCmd(),
		c.mcpCmd(),
	)
	return root
}

// result is the --json shape.
type result struct {
	Op       string  `json:"op"`
	OK       bool    `json:"ok"`
	Result   string  `json:"result,omitempty"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration_seconds"`
}

// send delivers req and prints the reply. transform, when set, rewrites a
// successful reply before printing.
func (c *cli) send(cmd *cobra.Command, req control.Request, transform func(string) string) error {
	b, err := c.connect(*c.opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if c.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	log.Printf("sending %s", req)
	start := time.Now()
	reply, err := b.Do(ctx, req)
	elapsed := time.Since(start)
	if err == nil && transform != nil {
		reply = transform(reply)
	}

	out := cmd.OutOrStdout()
	if c.opts.jsonOutput {
		r := result{Op: req.Op, OK: err == nil, Result: reply, Duration: elapsed.Seconds()}
		if err != nil {
			r.Error = err.Error()
			r.Result = ""
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(r); encErr != nil {
			return fmt.Errorf("failed to encode JSON output: %w", encErr)
		}
		return err
	}
	if err != nil {
		return err
	}
	if reply != "" {
		fmt.Fprintln(out, reply)
	}
	return nil
}

func (c *cli) simple(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send(cmd, control.Request{Op: op}, nil)
		},
	}
}

func (c *cli) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "move <top-left|top-right|bottom-left|bottom-right|center>",
		Short:     "Move the overlay to a named position",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"top-left", "top-right", "bottom-left", "bottom-right", "center"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send(cmd, control.Request{Op: control.OpMove, Position: args[0]}, nil)
		},
	}
}

func (c *cli) nudgeCmd() *cobra.Command {
	var step int
	cmd := &cobra.Command{
		Use:       "nudge <up|down|left|right>",
		Short:     "Shift the overlay by a few pixels",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "left", "right"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send(cmd, control.Request{Op: control.OpNudge, Direction: args[0], Step: step}, nil)
		},
	}
	cmd.Flags().IntVar(&step, "step", 0, "Pixels to move (0 uses the default)")
	return cmd
}

func (c *cli) resizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <width> <height>",
		Short: "Set the overlay's outer size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args)
			if err != nil {
				return err
			}
			return c.send(cmd, control.Request{Op: control.OpResize, Width: n[0], Height: n[1]}, nil)
		},
	}
}

func (c *cli) captureRegionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capture-region <x> <y> <width> <height>",
		Short: "Capture a rectangle of the primary screen and print the PNG path",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args)
			if err != nil {
				return err
			}
			return c.send(cmd, control.Request{Op: control.OpCaptureRegion, X: n[0], Y: n[1], Width: n[2], Height: n[3]}, nil)
		},
	}
}

func (c *cli) setKeyCmd(op, short string) *cobra.Command {
	var clearKey bool
	cmd := &cobra.Command{
		Use:   op + " <key>",
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			if clearKey {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if !clearKey {
				key = args[0]
			}
			return c.send(cmd, control.Request{Op: op, Key: key}, nil)
		},
	}
	cmd.Flags().BoolVar(&clearKey, "clear", false, "Remove the stored value")
	return cmd
}

func (c *cli) getKeyCmd(op, short string) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   op,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send(cmd, control.Request{Op: op}, func(k string) string {
				switch {
				case k == "":
					return "not set"
				case reveal:
					return k
				default:
					return logutil.RedactKey(k)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the full value")
	return cmd
}

func (c *cli) setModelCmd() *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:   "set-model <model>",
		Short: "Select the model used for questions",
		Long:  "Select the model used for questions. Partial names are matched against the known models unless --exact is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := args[0]
			if !exact {
				model = llm.ResolveModel(model)
			}
			return c.send(cmd, control.Request{Op: control.OpSetModel, Model: model}, nil)
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "Send the model name verbatim")
	return cmd
}

func (c *cli) promptCmd(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " <prompt...>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := joinPrompt(cmd, args)
			if err != nil {
				return err
			}
			return c.send(cmd, control.Request{Op: op, Prompt: prompt}, nil)
		},
	}
}

func (c *cli) askImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask-image <path> <prompt...>",
		Short: "Ask about an image file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("image not readable: %w", err)
			}
			prompt, err := joinPrompt(cmd, args[1:])
			if err != nil {
				return err
			}
			return c.send(cmd, control.Request{Op: control.OpAskImage, Path: path, Prompt: prompt}, nil)
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether an overlay is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.send(cmd, control.Request{Op: control.OpQueueLength}, func(n string) string {
				return "running, " + n + " queued"
			})
		},
	}
}

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the overlay's operations as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.connect(*c.opts)
			if err != nil {
				return err
			}
			return overlaymcp.Serve(b, version)
		},
	}
}

// joinPrompt joins words into one prompt; a single "-" reads it from stdin.
func joinPrompt(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		args = []string{string(b)}
	}
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}
	return prompt, nil
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out[i] = n
	}
	return out, nil
}
