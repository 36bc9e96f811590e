package tools

import (
	"context"

	"concierge/pkg/proto"
)

// TransferCallTool hands the caller off to a human. The handoff itself is
// performed by the transport layer through the forward-to-client payload; a
// successful transfer does not end the call from this side, the transport
// terminates it once the bridge is up.
type TransferCallTool struct{}

// NewTransferCallTool creates the transfer_call tool.
func NewTransferCallTool() *TransferCallTool { return &TransferCallTool{} }

// Name returns the tool identifier.
func (t *TransferCallTool) Name() string { return "transfer_call" }

// Definition returns the tool's registry description. Transfers run without
// a confirmation round: the caller already asked for a person explicitly.
func (t *TransferCallTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "transfer_call",
		Description: "Forward the call to a member of staff.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"reason": {Type: "string", Description: "Why the caller asked for a person"},
			},
		},
	}
}

// Exec signals the transport layer to bridge the call.
func (t *TransferCallTool) Exec(_ context.Context, params map[string]any, ec ExecContext) (*proto.ToolExecutionResult, error) {
	data := map[string]any{"action": "transfer"}
	if reason, ok := params["reason"].(string); ok && reason != "" {
		data["reason"] = reason
	}
	return &proto.ToolExecutionResult{
		Success:         true,
		Data:            data,
		ForwardToClient: true,
		VoiceMessage: pick(ec.Locale,
			"Por supuesto, le paso con una persona del equipo. Un momento, por favor.",
			"Of course, let me put you through to a member of our team. One moment, please."),
	}, nil
}
