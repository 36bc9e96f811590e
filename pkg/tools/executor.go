package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"concierge/pkg/logx"
	"concierge/pkg/proto"
)

// AuditSink receives best-effort execution records. *persistence.Store
// satisfies it; a nil sink disables auditing.
type AuditSink interface {
	RecordToolExecution(ctx context.Context, tenantID, callID, toolName string, params map[string]any, success bool, execErr string)
}

// Executor gates and runs the pending tool for one turn. A tool flagged
// RequiresConfirmation only executes once ConfirmationStatus has
// independently become confirmed on a later turn.
type Executor struct {
	registry Registry
	audit    AuditSink
	timeout  time.Duration
	logger   *logx.Logger
}

// NewExecutor creates an executor over the given registry. timeout bounds
// every tool run; audit may be nil.
func NewExecutor(registry Registry, timeout time.Duration, audit AuditSink) *Executor {
	return &Executor{
		registry: registry,
		audit:    audit,
		timeout:  timeout,
		logger:   logx.NewLogger("tools"),
	}
}

var noActionMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "No hay ninguna acción pendiente. ¿En qué puedo ayudarle?",
	proto.LocaleEnglish: "There's no pending action. How can I help you?",
}

var notAvailableMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "Lo siento, esa acción no está disponible ahora mismo.",
	proto.LocaleEnglish: "I'm sorry, that action isn't available right now.",
}

var executionFailureMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "Lo siento, no he podido completar la acción. ¿Puedo ayudarle en algo más?",
	proto.LocaleEnglish: "I'm sorry, I couldn't complete that action. Is there anything else I can help with?",
}

// Execute processes the state's pending tool and returns the resulting
// patch. It never returns an error and never panics past its boundary:
// every failure mode becomes an unsuccessful ToolExecutionResult.
func (e *Executor) Execute(ctx context.Context, state *proto.TurnState, ec ExecContext) (patch *proto.StatePatch) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("executor panic: %v", rec)
			patch = e.failurePatch(ctx, state, fmt.Sprintf("executor panic: %v", rec))
		}
	}()

	pending := state.PendingTool
	if pending == nil {
		return &proto.StatePatch{
			LastToolResult: &proto.ToolExecutionResult{
				Success:      true,
				VoiceMessage: localized(noActionMessages, state.Locale),
			},
		}
	}

	tool, ok := e.registry.Lookup(pending.Name)
	if !ok {
		e.logger.Warn("pending tool %q is not registered", pending.Name)
		return &proto.StatePatch{
			ClearPendingTool:   true,
			ConfirmationStatus: proto.Ptr(proto.ConfirmationNone),
			LastToolResult: &proto.ToolExecutionResult{
				Success:      false,
				Err:          fmt.Sprintf("tool %q not registered", pending.Name),
				VoiceMessage: localized(notAvailableMessages, state.Locale),
			},
		}
	}

	def := tool.Definition()
	if def.RequiresConfirmation && state.ConfirmationStatus != proto.ConfirmationConfirmed {
		question := RenderTemplate(
			localized(def.ConfirmationTemplate, state.Locale),
			state.Entities, pending.Params)
		queued := *pending
		queued.RequiresConfirmation = true
		queued.ConfirmationMessage = question
		e.logger.Info("tool %s awaiting confirmation for call %s", pending.Name, state.CallID)
		return &proto.StatePatch{
			PendingTool:        &queued,
			ConfirmationStatus: proto.Ptr(proto.ConfirmationPending),
			Response:           proto.Ptr(question),
			ResponseKind:       proto.Ptr(proto.ResponseConfirmation),
		}
	}

	result := e.run(ctx, tool, pending.Params, ec)

	if e.audit != nil {
		e.audit.RecordToolExecution(ctx, state.TenantID, state.CallID, pending.Name,
			pending.Params, result.Success, result.Err)
	}

	// The pending tool is cleared on every completed execution, success or
	// not, so the conversation is never stuck waiting on a dead action.
	return &proto.StatePatch{
		ClearPendingTool:   true,
		ConfirmationStatus: proto.Ptr(proto.ConfirmationNone),
		LastToolResult:     result,
	}
}

// run races the tool against the execution timeout. The result channel is
// buffered and the tool's context is cancelled on timeout, so neither path
// leaks the worker goroutine or the timer.
func (e *Executor) run(ctx context.Context, tool Tool, params map[string]any, ec ExecContext) *proto.ToolExecutionResult {
	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result *proto.ToolExecutionResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("tool panic: %v", rec)}
			}
		}()
		result, err := tool.Exec(execCtx, params, ec)
		done <- outcome{result: result, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			e.logger.Warn("tool %s failed: %v", tool.Name(), out.err)
			return &proto.ToolExecutionResult{
				Success:      false,
				Err:          out.err.Error(),
				VoiceMessage: localized(executionFailureMessages, ec.Locale),
			}
		}
		if out.result == nil {
			return &proto.ToolExecutionResult{
				Success:      false,
				Err:          "tool returned no result",
				VoiceMessage: localized(executionFailureMessages, ec.Locale),
			}
		}
		return out.result
	case <-timer.C:
		e.logger.Warn("tool %s timed out after %s", tool.Name(), e.timeout)
		return &proto.ToolExecutionResult{
			Success:      false,
			Err:          fmt.Sprintf("execution timed out after %s", e.timeout),
			VoiceMessage: localized(executionFailureMessages, ec.Locale),
		}
	case <-ctx.Done():
		return &proto.ToolExecutionResult{
			Success:      false,
			Err:          ctx.Err().Error(),
			VoiceMessage: localized(executionFailureMessages, ec.Locale),
		}
	}
}

func (e *Executor) failurePatch(ctx context.Context, state *proto.TurnState, errMsg string) *proto.StatePatch {
	if e.audit != nil && state.PendingTool != nil {
		e.audit.RecordToolExecution(ctx, state.TenantID, state.CallID,
			state.PendingTool.Name, state.PendingTool.Params, false, errMsg)
	}
	return &proto.StatePatch{
		ClearPendingTool:   true,
		ConfirmationStatus: proto.Ptr(proto.ConfirmationNone),
		LastToolResult: &proto.ToolExecutionResult{
			Success:      false,
			Err:          errMsg,
			VoiceMessage: localized(executionFailureMessages, state.Locale),
		},
		AppendErrors: []proto.GraphError{
			proto.RecoverableError(proto.NodeToolExecutor, errMsg),
		},
	}
}

// RenderTemplate substitutes {placeholder} occurrences from merged entity
// and parameter values. Parameters win over entities; unresolved
// placeholders are left in place.
func RenderTemplate(template string, entities map[string]string, params map[string]any) string {
	if template == "" {
		return template
	}
	values := make(map[string]string, len(entities)+len(params))
	for k, v := range entities {
		values[k] = v
	}
	for k, v := range params {
		values[k] = fmt.Sprintf("%v", v)
	}
	out := template
	for k, v := range values {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

func localized[V any](m map[proto.Locale]V, locale proto.Locale) V {
	if v, ok := m[locale]; ok {
		return v
	}
	return m[proto.LocaleSpanish]
}
