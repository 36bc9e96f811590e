package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/pkg/proto"
)

func TestValidateGraph(t *testing.T) {
	require.NoError(t, ValidateGraph())
}

func TestValidateGraphRejectsDanglingTarget(t *testing.T) {
	orig := ValidTransitions[proto.NodeConfirmation]
	ValidTransitions[proto.NodeConfirmation] = append(
		append([]proto.NodeName{}, orig...), proto.NodeName("ghost"))
	defer func() { ValidTransitions[proto.NodeConfirmation] = orig }()

	err := ValidateGraph()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

// Every intent and confirmation combination must map to an edge the
// transition table allows. The guard has no error branch.
func TestRouterEdgeIsTotal(t *testing.T) {
	intents := []proto.Intent{
		proto.IntentTool, proto.IntentRAG, proto.IntentDirect,
		proto.IntentTransfer, proto.IntentConfirm, proto.IntentUnknown,
		proto.Intent("garbage"),
	}
	statuses := []proto.ConfirmationStatus{
		proto.ConfirmationNone, proto.ConfirmationPending,
		proto.ConfirmationConfirmed, proto.ConfirmationDenied,
	}
	pendings := []*proto.PendingTool{
		nil,
		{Name: "cancel_reservation", EnqueuedAt: time.Now()},
	}

	for _, in := range intents {
		for _, status := range statuses {
			for _, pending := range pendings {
				state := proto.NewTurnState("c1", "t1", proto.LocaleSpanish, nil, "hola")
				state.Intent = in
				state.ConfirmationStatus = status
				state.PendingTool = pending

				next := routerEdge(state)
				assert.True(t, IsValidTransition(proto.NodeRouter, next),
					"intent=%s status=%s pending=%v -> %s", in, status, pending != nil, next)
			}
		}
	}
}

func TestRouterEdgeConfirmRouting(t *testing.T) {
	state := proto.NewTurnState("c1", "t1", proto.LocaleSpanish, nil, "si")
	state.Intent = proto.IntentConfirm

	// Orphan confirm with nothing queued goes straight to synthesis.
	assert.Equal(t, proto.NodeResponseGenerator, routerEdge(state))

	state.PendingTool = &proto.PendingTool{Name: "create_order", EnqueuedAt: time.Now()}
	state.ConfirmationStatus = proto.ConfirmationPending
	assert.Equal(t, proto.NodeConfirmation, routerEdge(state))
}

func TestToolExecutorEdgeAlwaysContinuesToSynthesis(t *testing.T) {
	state := proto.NewTurnState("c1", "t1", proto.LocaleSpanish, nil, "hola")
	assert.Equal(t, proto.NodeResponseGenerator, toolExecutorEdge(state))

	state.PendingTool = &proto.PendingTool{Name: "create_reservation", EnqueuedAt: time.Now()}
	assert.Equal(t, proto.NodeResponseGenerator, toolExecutorEdge(state))
}

func TestConfirmationEdge(t *testing.T) {
	state := proto.NewTurnState("c1", "t1", proto.LocaleSpanish, nil, "si")
	state.PendingTool = &proto.PendingTool{Name: "create_order", EnqueuedAt: time.Now()}

	state.ConfirmationStatus = proto.ConfirmationConfirmed
	assert.Equal(t, proto.NodeToolExecutor, confirmationEdge(state))

	state.ConfirmationStatus = proto.ConfirmationDenied
	assert.Equal(t, proto.NodeResponseGenerator, confirmationEdge(state))

	// A yes with nothing left to run has nothing to resume.
	state.ConfirmationStatus = proto.ConfirmationConfirmed
	state.PendingTool = nil
	assert.Equal(t, proto.NodeResponseGenerator, confirmationEdge(state))
}

func TestNextNodeDefaultsOnUnknownNode(t *testing.T) {
	state := proto.NewTurnState("c1", "t1", proto.LocaleSpanish, nil, "hola")
	state.CurrentNode = proto.NodeName("nonsense")
	assert.Equal(t, proto.NodeResponseGenerator, nextNode(state))
}

func TestNextNodeRejectsOffTableHop(t *testing.T) {
	// Temporarily swap in a guard that proposes an illegal hop; nextNode
	// must clamp it to the safe terminal path.
	orig := edges[proto.NodeRAG]
	edges[proto.NodeRAG] = func(*proto.TurnState) proto.NodeName { return proto.NodeRouter }
	defer func() { edges[proto.NodeRAG] = orig }()

	state := proto.NewTurnState("c1", "t1", proto.LocaleSpanish, nil, "hola")
	state.CurrentNode = proto.NodeRAG
	assert.Equal(t, proto.NodeResponseGenerator, nextNode(state))
}
