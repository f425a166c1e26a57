package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"stealth-overlay/src/control"
)

// toolEntry pairs a tool definition with the control op it drives.
type toolEntry struct {
	op  string
	def mcp.Tool
}

var positions = []string{"top-left", "top-right", "bottom-left", "bottom-right", "center"}

var directions = []string{"up", "down", "left", "right"}

func promptArg(required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{mcp.Description("Question for the model")}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString("prompt", opts...)
}

// toolRegistry lists one tool per control op. Tool names use underscores.
var toolRegistry = []toolEntry{
	{control.OpMove, mcp.NewTool("overlay_move",
		mcp.WithDescription("Move the overlay to a named screen position"),
		mcp.WithString("position", mcp.Required(), mcp.Enum(positions...)),
	)},
	{control.OpNudge, mcp.NewTool("overlay_nudge",
		mcp.WithDescription("Shift the overlay by a few pixels"),
		mcp.WithString("direction", mcp.Required(), mcp.Enum(directions...)),
		mcp.WithNumber("step", mcp.Description("Pixels to move; 0 uses the default step")),
	)},
	{control.OpToggle, mcp.NewTool("overlay_toggle",
		mcp.WithDescription("Toggle between visible and click-through"),
	)},
	{control.OpResize, mcp.NewTool("overlay_resize",
		mcp.WithDescription("Set the overlay's outer size"),
		mcp.WithNumber("width", mcp.Required()),
		mcp.WithNumber("height", mcp.Required()),
	)},
	{control.OpCaptureRegion, mcp.NewTool("overlay_capture_region",
		mcp.WithDescription("Capture a rectangle of the primary screen as PNG and return its path"),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
		mcp.WithNumber("width", mcp.Required()),
		mcp.WithNumber("height", mcp.Required()),
	)},
	{control.OpCaptureFull, mcp.NewTool("overlay_capture_full",
		mcp.WithDescription("Capture the primary screen as PNG and return its path"),
	)},
	{control.OpSetPrimaryKey, mcp.NewTool("overlay_set_primary_key",
		mcp.WithDescription("Store the primary inference API key; empty clears it"),
		mcp.WithString("key", mcp.Required()),
	)},
	{control.OpGetPrimaryKey, mcp.NewTool("overlay_get_primary_key",
		mcp.WithDescription("Report whether a primary API key is set (redacted)"),
	)},
	{control.OpSetSecondaryKey, mcp.NewTool("overlay_set_secondary_key",
		mcp.WithDescription("Store the escalation API token; empty clears it"),
		mcp.WithString("key", mcp.Required()),
	)},
	{control.OpGetSecondaryKey, mcp.NewTool("overlay_get_secondary_key",
		mcp.WithDescription("Report whether an escalation token is set (redacted)"),
	)},
	{control.OpSetModel, mcp.NewTool("overlay_set_model",
		mcp.WithDescription("Select the model used for questions"),
		mcp.WithString("model", mcp.Required()),
	)},
	{control.OpGetModel, mcp.NewTool("overlay_get_model",
		mcp.WithDescription("Return the selected model"),
	)},
	{control.OpEnqueue, mcp.NewTool("overlay_enqueue",
		mcp.WithDescription("Capture the screen into the snapshot queue"),
	)},
	{control.OpQueueLength, mcp.NewTool("overlay_queue_length",
		mcp.WithDescription("Return the number of queued snapshots"),
	)},
	{control.OpClearQueue, mcp.NewTool("overlay_clear_queue",
		mcp.WithDescription("Discard every queued snapshot"),
	)},
	{control.OpAsk, mcp.NewTool("overlay_ask",
		mcp.WithDescription("Ask the model a text-only question"),
		promptArg(true),
	)},
	{control.OpAskImage, mcp.NewTool("overlay_ask_image",
		mcp.WithDescription("Ask the model about an image file"),
		promptArg(true),
		mcp.WithString("path", mcp.Required(), mcp.Description("Image file readable by the overlay")),
	)},
	{control.OpAskQueue, mcp.NewTool("overlay_ask_queue",
		mcp.WithDescription("Ask the model about every queued snapshot in one request"),
		promptArg(true),
	)},
	{control.OpBeast, mcp.NewTool("overlay_beast",
		mcp.WithDescription("Extract the queued snapshots and escalate them to the secondary model"),
		promptArg(true),
	)},
	{control.OpQuit, mcp.NewTool("overlay_quit",
		mcp.WithDescription("Shut the overlay down"),
	)},
}

// AllToolNames returns the registered tool names in registry order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for _, e := range toolRegistry {
		names = append(names, e.def.Name)
	}
	return names
}
