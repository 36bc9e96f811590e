package tools

import (
	"context"
	"fmt"

	"concierge/pkg/persistence"
	"concierge/pkg/proto"
)

// CreateOrderTool records a takeout order for the business.
type CreateOrderTool struct{}

// NewCreateOrderTool creates the create_order tool.
func NewCreateOrderTool() *CreateOrderTool { return &CreateOrderTool{} }

// Name returns the tool identifier.
func (t *CreateOrderTool) Name() string { return "create_order" }

// Definition returns the tool's registry description.
func (t *CreateOrderTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:                 "create_order",
		Description:          "Record a takeout order with the items the caller asked for.",
		RequiresConfirmation: true,
		ConfirmationTemplate: map[proto.Locale]string{
			proto.LocaleSpanish: "¿Confirmo el pedido de {items}?",
			proto.LocaleEnglish: "Shall I confirm the order for {items}?",
		},
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"items": {Type: "string", Description: "Comma-separated ordered items"},
				"name":  {Type: "string", Description: "Customer name"},
				"phone": {Type: "string", Description: "Contact phone"},
				"notes": {Type: "string", Description: "Preparation or pickup notes"},
			},
			Required: []string{"items"},
		},
	}
}

// Exec records the order.
func (t *CreateOrderTool) Exec(ctx context.Context, params map[string]any, ec ExecContext) (*proto.ToolExecutionResult, error) {
	items := paramOr(params, ec.Entities, "items")
	if items == "" {
		return &proto.ToolExecutionResult{
			Success: false,
			Err:     "order has no items",
			VoiceMessage: pick(ec.Locale,
				"No he entendido qué quiere pedir. ¿Me lo puede repetir?",
				"I didn't catch what you'd like to order. Could you repeat it?"),
		}, nil
	}

	id, err := ec.Store.CreateOrder(ctx, &persistence.Order{
		TenantID:      ec.TenantID,
		CallID:        ec.CallID,
		CustomerName:  paramOr(params, ec.Entities, "name"),
		CustomerPhone: paramOr(params, ec.Entities, "phone"),
		Items:         items,
		Notes:         paramOr(params, ec.Entities, "notes"),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &proto.ToolExecutionResult{
		Success: true,
		Data:    map[string]any{"order_id": id},
		VoiceMessage: pick(ec.Locale,
			"Su pedido queda registrado. Le avisaremos cuando esté listo.",
			"Your order has been placed. We'll let you know when it's ready."),
	}, nil
}
