package tools

import (
	"context"
	"fmt"

	"concierge/pkg/persistence"
	"concierge/pkg/proto"
)

// TakeMessageTool stores a message from the caller for the business.
type TakeMessageTool struct{}

// NewTakeMessageTool creates the take_message tool.
func NewTakeMessageTool() *TakeMessageTool { return &TakeMessageTool{} }

// Name returns the tool identifier.
func (t *TakeMessageTool) Name() string { return "take_message" }

// Definition returns the tool's registry description.
func (t *TakeMessageTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "take_message",
		Description: "Take a message from the caller and store it for the business.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"message": {Type: "string", Description: "The message to pass on"},
				"name":    {Type: "string", Description: "Caller name"},
				"phone":   {Type: "string", Description: "Callback number"},
			},
			Required: []string{"message"},
		},
	}
}

// Exec stores the message.
func (t *TakeMessageTool) Exec(ctx context.Context, params map[string]any, ec ExecContext) (*proto.ToolExecutionResult, error) {
	body := paramOr(params, ec.Entities, "message")
	if body == "" {
		return &proto.ToolExecutionResult{
			Success: false,
			Err:     "empty message",
			VoiceMessage: pick(ec.Locale,
				"¿Qué mensaje quiere que les deje?",
				"What message would you like me to leave for them?"),
		}, nil
	}

	id, err := ec.Store.SaveCallerMessage(ctx, &persistence.CallerMessage{
		TenantID:    ec.TenantID,
		CallID:      ec.CallID,
		CallerName:  paramOr(params, ec.Entities, "name"),
		CallerPhone: paramOr(params, ec.Entities, "phone"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	return &proto.ToolExecutionResult{
		Success: true,
		Data:    map[string]any{"message_id": id},
		VoiceMessage: pick(ec.Locale,
			"Perfecto, les haré llegar su mensaje.",
			"Perfect, I'll make sure they get your message."),
	}, nil
}
