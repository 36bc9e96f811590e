package tools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"concierge/pkg/persistence"
	"concierge/pkg/proto"
)

// CreateReservationTool books a table for the caller.
type CreateReservationTool struct{}

// NewCreateReservationTool creates the create_reservation tool.
func NewCreateReservationTool() *CreateReservationTool { return &CreateReservationTool{} }

// Name returns the tool identifier.
func (t *CreateReservationTool) Name() string { return "create_reservation" }

// Definition returns the tool's registry description.
func (t *CreateReservationTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:                 "create_reservation",
		Description:          "Book a table for the caller on a given date and time.",
		RequiresConfirmation: true,
		ConfirmationTemplate: map[proto.Locale]string{
			proto.LocaleSpanish: "¿Confirmo la reserva para {guests} personas el {date} a las {time}?",
			proto.LocaleEnglish: "Shall I confirm the reservation for {guests} guests on {date} at {time}?",
		},
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"date":   {Type: "string", Description: "Reservation date"},
				"time":   {Type: "string", Description: "Reservation time"},
				"guests": {Type: "string", Description: "Party size"},
				"name":   {Type: "string", Description: "Customer name"},
				"phone":  {Type: "string", Description: "Contact phone"},
			},
			Required: []string{"date", "time"},
		},
	}
}

// Exec books the table.
func (t *CreateReservationTool) Exec(ctx context.Context, params map[string]any, ec ExecContext) (*proto.ToolExecutionResult, error) {
	date := paramOr(params, ec.Entities, "date")
	timeOfDay := paramOr(params, ec.Entities, "time")
	if date == "" || timeOfDay == "" {
		return missingDetailsResult(ec.Locale), nil
	}
	guests, _ := strconv.Atoi(paramOr(params, ec.Entities, "guests"))

	id, err := ec.Store.CreateReservation(ctx, &persistence.Reservation{
		TenantID:      ec.TenantID,
		CallID:        ec.CallID,
		CustomerName:  paramOr(params, ec.Entities, "name"),
		CustomerPhone: paramOr(params, ec.Entities, "phone"),
		Date:          date,
		Time:          timeOfDay,
		Guests:        guests,
	})
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	return &proto.ToolExecutionResult{
		Success: true,
		Data:    map[string]any{"reservation_id": id, "date": date, "time": timeOfDay},
		VoiceMessage: pick(ec.Locale,
			fmt.Sprintf("Perfecto, su reserva para el %s a las %s está confirmada.", date, timeOfDay),
			fmt.Sprintf("Perfect, your reservation for %s at %s is confirmed.", date, timeOfDay)),
	}, nil
}

// CancelReservationTool cancels an existing reservation.
type CancelReservationTool struct{}

// NewCancelReservationTool creates the cancel_reservation tool.
func NewCancelReservationTool() *CancelReservationTool { return &CancelReservationTool{} }

// Name returns the tool identifier.
func (t *CancelReservationTool) Name() string { return "cancel_reservation" }

// Definition returns the tool's registry description.
func (t *CancelReservationTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:                 "cancel_reservation",
		Description:          "Cancel the caller's existing reservation.",
		RequiresConfirmation: true,
		ConfirmationTemplate: map[proto.Locale]string{
			proto.LocaleSpanish: "¿Confirmo la cancelación de su reserva?",
			proto.LocaleEnglish: "Shall I go ahead and cancel your reservation?",
		},
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"name": {Type: "string", Description: "Name the reservation is under"},
				"date": {Type: "string", Description: "Reservation date"},
			},
		},
	}
}

// Exec cancels the most recent matching reservation.
func (t *CancelReservationTool) Exec(ctx context.Context, params map[string]any, ec ExecContext) (*proto.ToolExecutionResult, error) {
	reservation, err := ec.Store.FindReservation(ctx, ec.TenantID,
		paramOr(params, ec.Entities, "name"),
		paramOr(params, ec.Entities, "date"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundResult(ec.Locale), nil
		}
		return nil, fmt.Errorf("find reservation: %w", err)
	}

	if err := ec.Store.CancelReservation(ctx, ec.TenantID, reservation.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundResult(ec.Locale), nil
		}
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	return &proto.ToolExecutionResult{
		Success: true,
		Data:    map[string]any{"reservation_id": reservation.ID},
		VoiceMessage: pick(ec.Locale,
			"Su reserva ha sido cancelada. ¿Puedo ayudarle en algo más?",
			"Your reservation has been cancelled. Is there anything else I can help with?"),
	}, nil
}

// ModifyReservationTool changes the date, time or party size of a booking.
type ModifyReservationTool struct{}

// NewModifyReservationTool creates the modify_reservation tool.
func NewModifyReservationTool() *ModifyReservationTool { return &ModifyReservationTool{} }

// Name returns the tool identifier.
func (t *ModifyReservationTool) Name() string { return "modify_reservation" }

// Definition returns the tool's registry description.
func (t *ModifyReservationTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:                 "modify_reservation",
		Description:          "Change the date, time or party size of an existing reservation.",
		RequiresConfirmation: true,
		ConfirmationTemplate: map[proto.Locale]string{
			proto.LocaleSpanish: "¿Confirmo el cambio de su reserva al {date} a las {time}?",
			proto.LocaleEnglish: "Shall I change your reservation to {date} at {time}?",
		},
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"name":   {Type: "string", Description: "Name the reservation is under"},
				"date":   {Type: "string", Description: "New date"},
				"time":   {Type: "string", Description: "New time"},
				"guests": {Type: "string", Description: "New party size"},
			},
		},
	}
}

// Exec applies the modification to the most recent matching reservation.
func (t *ModifyReservationTool) Exec(ctx context.Context, params map[string]any, ec ExecContext) (*proto.ToolExecutionResult, error) {
	reservation, err := ec.Store.FindReservation(ctx, ec.TenantID,
		paramOr(params, ec.Entities, "name"), "")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundResult(ec.Locale), nil
		}
		return nil, fmt.Errorf("find reservation: %w", err)
	}

	guests, _ := strconv.Atoi(paramOr(params, ec.Entities, "guests"))
	err = ec.Store.ModifyReservation(ctx, ec.TenantID, reservation.ID,
		paramOr(params, ec.Entities, "date"),
		paramOr(params, ec.Entities, "time"),
		guests)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundResult(ec.Locale), nil
		}
		return nil, fmt.Errorf("modify reservation: %w", err)
	}

	return &proto.ToolExecutionResult{
		Success: true,
		Data:    map[string]any{"reservation_id": reservation.ID},
		VoiceMessage: pick(ec.Locale,
			"Listo, su reserva ha sido actualizada. ¿Puedo ayudarle en algo más?",
			"Done, your reservation has been updated. Is there anything else I can help with?"),
	}, nil
}

// paramOr resolves a string value preferring explicit parameters over the
// entities extracted this turn.
func paramOr(params map[string]any, entities map[string]string, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		if v != nil {
			return fmt.Sprintf("%v", v)
		}
	}
	return entities[key]
}

func pick(locale proto.Locale, es, en string) string {
	if locale == proto.LocaleEnglish {
		return en
	}
	return es
}

func missingDetailsResult(locale proto.Locale) *proto.ToolExecutionResult {
	return &proto.ToolExecutionResult{
		Success: false,
		Err:     "missing required reservation details",
		VoiceMessage: pick(locale,
			"Me falta algún dato. ¿Para qué día y a qué hora quiere la reserva?",
			"I'm missing some details. What date and time would you like the reservation for?"),
	}
}

func notFoundResult(locale proto.Locale) *proto.ToolExecutionResult {
	return &proto.ToolExecutionResult{
		Success: false,
		Err:     "reservation not found",
		VoiceMessage: pick(locale,
			"No encuentro ninguna reserva a su nombre. ¿Podría repetirme el nombre?",
			"I can't find a reservation under that name. Could you repeat the name for me?"),
	}
}
