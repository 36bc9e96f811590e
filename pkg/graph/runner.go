// Package graph drives one complete pass of the turn state machine: router
// first, then exactly one of retrieval, tool execution or confirmation, then
// response synthesis. Nodes run sequentially; there is no fan-out.
package graph

import (
	"context"
	"fmt"
	"time"

	"concierge/pkg/confirm"
	"concierge/pkg/intent"
	"concierge/pkg/logx"
	"concierge/pkg/persistence"
	"concierge/pkg/proto"
	"concierge/pkg/rag"
	"concierge/pkg/respond"
	"concierge/pkg/tools"
	"concierge/pkg/utils"
)

// maxHops bounds one turn's node visits. The longest legal path is four
// nodes, so hitting the bound means a guard bug; the turn is forced to a
// safe reply instead of spinning.
const maxHops = 8

// Observer receives per-node and per-turn measurements. A nil observer
// disables recording.
type Observer interface {
	ObserveNode(node proto.NodeName, d time.Duration)
	ObserveTurn(in proto.Intent, d time.Duration, errs int)
	ObserveConfirmation(resolution proto.ConfirmationStatus)
	ObserveRetrieval(success bool)
}

// Runner owns the per-turn orchestration. It holds no per-call state:
// different turns are independent invocations, and cross-turn continuity
// travels through the caller-persisted TurnState fields.
type Runner struct {
	router      *intent.Router
	retriever   rag.Retriever
	executor    *tools.Executor
	interpreter *confirm.Interpreter
	synthesizer *respond.Synthesizer
	store       *persistence.Store

	ragMaxResults int
	maxAttempts   int
	observer      Observer
	logger        *logx.Logger
}

// Config wires a Runner's collaborators.
type Config struct {
	Router      *intent.Router
	Retriever   rag.Retriever
	Executor    *tools.Executor
	Interpreter *confirm.Interpreter
	Synthesizer *respond.Synthesizer
	Store       *persistence.Store

	RAGMaxResults int
	MaxAttempts   int
	Observer      Observer
}

// NewRunner validates the transition table and builds the orchestrator.
func NewRunner(cfg Config) (*Runner, error) {
	if err := ValidateGraph(); err != nil {
		return nil, fmt.Errorf("invalid transition table: %w", err)
	}
	if cfg.Router == nil || cfg.Executor == nil || cfg.Interpreter == nil || cfg.Synthesizer == nil {
		return nil, fmt.Errorf("router, executor, interpreter and synthesizer are required")
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	ragMax := cfg.RAGMaxResults
	if ragMax <= 0 {
		ragMax = 3
	}
	return &Runner{
		router:        cfg.Router,
		retriever:     cfg.Retriever,
		executor:      cfg.Executor,
		interpreter:   cfg.Interpreter,
		synthesizer:   cfg.Synthesizer,
		store:         cfg.Store,
		ragMaxResults: ragMax,
		maxAttempts:   maxAttempts,
		observer:      cfg.Observer,
		logger:        logx.NewLogger("graph"),
	}, nil
}

// Run executes one turn from router to end and returns the final state plus
// the derived caller-facing response. It never returns an error: every
// failure mode inside the graph degrades to a spoken apology.
func (r *Runner) Run(ctx context.Context, state *proto.TurnState) (*proto.TurnState, proto.TurnResponse) {
	turnStart := time.Now()
	state.CurrentNode = proto.NodeRouter

	for hops := 0; hops < maxHops; hops++ {
		node := state.CurrentNode
		if node == proto.NodeEnd {
			break
		}

		nodeStart := time.Now()
		patch := r.runNode(ctx, node, state)
		elapsed := time.Since(nodeStart)

		if patch == nil {
			patch = &proto.StatePatch{}
		}
		if patch.NodeLatency == nil {
			patch.NodeLatency = map[proto.NodeName]time.Duration{}
		}
		patch.NodeLatency[node] = elapsed
		proto.Apply(state, patch)

		if r.observer != nil {
			r.observer.ObserveNode(node, elapsed)
		}
		if logx.IsDebugEnabledForDomain("graph") {
			r.logger.Debug("node %s finished in %s, intent=%s", node, elapsed, state.Intent)
		}

		state.CurrentNode = nextNode(state)
	}

	if state.CurrentNode != proto.NodeEnd {
		// Hop budget exhausted. Force a safe reply.
		r.logger.Error("hop budget exhausted for call %s at node %s", state.CallID, state.CurrentNode)
		proto.Apply(state, &proto.StatePatch{
			AppendErrors: []proto.GraphError{
				proto.RecoverableError(state.CurrentNode, "hop budget exhausted"),
			},
		})
		proto.Apply(state, r.safeSynthesize(ctx, state))
		state.CurrentNode = proto.NodeEnd
	}

	state.Done = true
	if r.observer != nil {
		r.observer.ObserveTurn(state.Intent, time.Since(turnStart), len(state.Errors))
	}
	return state, state.ResponseOut()
}

// runNode dispatches to the node implementation with panic containment:
// a node that explodes becomes a recoverable error and the turn is steered
// toward the response generator by the edge logic.
func (r *Runner) runNode(ctx context.Context, node proto.NodeName, state *proto.TurnState) (patch *proto.StatePatch) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("node %s panicked: %v", node, rec)
			patch = &proto.StatePatch{
				AppendErrors: []proto.GraphError{
					proto.RecoverableError(node, fmt.Sprintf("node panic: %v", rec)),
				},
			}
		}
	}()

	switch node {
	case proto.NodeRouter:
		return r.runRouter(ctx, state)
	case proto.NodeRAG:
		return r.runRAG(ctx, state)
	case proto.NodeToolExecutor:
		return r.executor.Execute(ctx, state, r.execContext(state))
	case proto.NodeConfirmation:
		return r.runConfirmation(state)
	case proto.NodeResponseGenerator:
		return r.safeSynthesize(ctx, state)
	default:
		return &proto.StatePatch{
			AppendErrors: []proto.GraphError{
				proto.RecoverableError(node, fmt.Sprintf("no implementation for node %q", node)),
			},
		}
	}
}

func (r *Runner) runRouter(ctx context.Context, state *proto.TurnState) *proto.StatePatch {
	outstanding := state.ConfirmationStatus == proto.ConfirmationPending && state.PendingTool != nil
	result, degraded := r.router.Classify(ctx, state.Input, state.Locale, outstanding)

	patch := &proto.StatePatch{
		NormalizedInput: proto.Ptr(normalizeForState(state.Input)),
		Intent:          proto.Ptr(result.Intent),
		Confidence:      proto.Ptr(result.Confidence),
		SubIntent:       proto.Ptr(result.SubIntent),
		Entities:        result.Entities,
		AppendMessages: []proto.Message{
			{Role: proto.RoleUser, Content: state.Input},
		},
	}
	if degraded {
		patch.AppendErrors = []proto.GraphError{
			proto.RecoverableError(proto.NodeRouter, "classification degraded to direct"),
		}
	}

	// A tool intent with no queued action enqueues one now; the executor
	// decides whether it needs confirmation first.
	if state.PendingTool == nil {
		if name, ok := toolForSubIntent(result.Intent, result.SubIntent); ok {
			patch.PendingTool = &proto.PendingTool{
				Name:       name,
				Params:     paramsFromEntities(result.Entities),
				EnqueuedAt: time.Now().UTC(),
			}
		}
	}
	return patch
}

func (r *Runner) runRAG(ctx context.Context, state *proto.TurnState) *proto.StatePatch {
	patch := &proto.StatePatch{UsedRAG: proto.Ptr(true)}
	if r.retriever == nil {
		patch.RAGResult = &proto.RAGResult{Success: false}
		patch.AppendErrors = []proto.GraphError{
			proto.RecoverableError(proto.NodeRAG, "no retriever configured"),
		}
		return patch
	}

	start := time.Now()
	result, err := r.retriever.Retrieve(ctx, state.TenantID, state.Input, r.ragMaxResults)
	if err != nil {
		r.logger.Warn("retrieval failed: %v", err)
		if r.observer != nil {
			r.observer.ObserveRetrieval(false)
		}
		patch.RAGResult = &proto.RAGResult{Success: false, Latency: time.Since(start)}
		patch.AppendErrors = []proto.GraphError{
			proto.RecoverableError(proto.NodeRAG, fmt.Sprintf("retrieval failed: %v", err)),
		}
		return patch
	}
	if r.observer != nil {
		r.observer.ObserveRetrieval(result != nil && result.Success)
	}
	patch.RAGResult = result
	return patch
}

func (r *Runner) runConfirmation(state *proto.TurnState) *proto.StatePatch {
	toolName := ""
	question := ""
	if state.PendingTool != nil {
		toolName = state.PendingTool.Name
		question = state.PendingTool.ConfirmationMessage
	}

	result := r.interpreter.Interpret(state.Input, state.Locale, toolName, question)
	if r.observer != nil {
		r.observer.ObserveConfirmation(result.Status)
	}

	switch result.Status {
	case proto.ConfirmationConfirmed:
		// The confirmation edge resumes the queued tool.
		return &proto.StatePatch{
			ConfirmationStatus:   proto.Ptr(proto.ConfirmationConfirmed),
			ConfirmationAttempts: proto.Ptr(0),
		}

	case proto.ConfirmationDenied:
		return &proto.StatePatch{
			ConfirmationStatus:   proto.Ptr(proto.ConfirmationDenied),
			ConfirmationAttempts: proto.Ptr(0),
			ClearPendingTool:     true,
			Response:             proto.Ptr(result.Message),
			ResponseKind:         proto.Ptr(proto.ResponseConfirmation),
		}

	default:
		attempts := state.ConfirmationAttempts + 1
		if attempts >= r.maxAttempts {
			// Too many clarification rounds. Force a denial so the
			// caller is never stuck in the loop.
			r.logger.Info("confirmation attempts exhausted for call %s, forcing denial", state.CallID)
			return &proto.StatePatch{
				ConfirmationStatus:   proto.Ptr(proto.ConfirmationDenied),
				ConfirmationAttempts: proto.Ptr(0),
				ClearPendingTool:     true,
				Response:             proto.Ptr(forcedDenialMessage(state.Locale, toolName)),
				ResponseKind:         proto.Ptr(proto.ResponseConfirmation),
			}
		}
		return &proto.StatePatch{
			ConfirmationStatus:   proto.Ptr(proto.ConfirmationPending),
			ConfirmationAttempts: proto.Ptr(attempts),
			Response:             proto.Ptr(result.Message),
			ResponseKind:         proto.Ptr(proto.ResponseConfirmation),
		}
	}
}

// safeSynthesize calls the synthesizer with a second containment layer so
// the terminal node can never leave the turn without a response.
func (r *Runner) safeSynthesize(ctx context.Context, state *proto.TurnState) (patch *proto.StatePatch) {
	defer func() {
		if rec := recover(); rec != nil {
			text := "Disculpe, ha habido un problema. ¿Puede repetírmelo, por favor?"
			if state.Locale == proto.LocaleEnglish {
				text = "I'm sorry, something went wrong. Could you say that again, please?"
			}
			patch = &proto.StatePatch{
				Response:     proto.Ptr(text),
				ResponseKind: proto.Ptr(proto.ResponseApology),
				AppendErrors: []proto.GraphError{
					proto.RecoverableError(proto.NodeResponseGenerator, fmt.Sprintf("synthesis panic: %v", rec)),
				},
			}
		}
	}()
	return r.synthesizer.Synthesize(ctx, state)
}

func (r *Runner) execContext(state *proto.TurnState) tools.ExecContext {
	return tools.ExecContext{
		TenantID: state.TenantID,
		CallID:   state.CallID,
		Locale:   state.Locale,
		Store:    r.store,
		Entities: state.Entities,
	}
}

// toolForSubIntent maps a classified action to its registered tool.
func toolForSubIntent(in proto.Intent, subIntent string) (string, bool) {
	if in == proto.IntentTransfer {
		return "transfer_call", true
	}
	if in != proto.IntentTool {
		return "", false
	}
	switch subIntent {
	case "reservation.create":
		return "create_reservation", true
	case "reservation.cancel":
		return "cancel_reservation", true
	case "reservation.modify":
		return "modify_reservation", true
	case "order.create":
		return "create_order", true
	case "message.take":
		return "take_message", true
	default:
		return "", false
	}
}

func paramsFromEntities(entities map[string]string) map[string]any {
	if len(entities) == 0 {
		return nil
	}
	params := make(map[string]any, len(entities))
	for k, v := range entities {
		params[k] = v
	}
	return params
}

var forcedDenialMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "No he podido confirmar la acción, así que no la realizaré. ¿Puedo ayudarle en algo más?",
	proto.LocaleEnglish: "I couldn't get a clear confirmation, so I won't go ahead. Is there anything else I can help with?",
}

func forcedDenialMessage(locale proto.Locale, _ string) string {
	if msg, ok := forcedDenialMessages[locale]; ok {
		return msg
	}
	return forcedDenialMessages[proto.LocaleSpanish]
}

func normalizeForState(input string) string {
	return utils.NormalizeText(input)
}
