package graph

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/pkg/confirm"
	"concierge/pkg/intent"
	"concierge/pkg/persistence"
	"concierge/pkg/proto"
	"concierge/pkg/rag"
	"concierge/pkg/respond"
	"concierge/pkg/tools"
)

type fakeRetriever struct {
	result *proto.RAGResult
	err    error
	panics bool
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ string, _ int) (*proto.RAGResult, error) {
	if f.panics {
		panic("retriever exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestRunner(t *testing.T, retriever *fakeRetriever) (*Runner, *persistence.Store) {
	t.Helper()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Assign through a plain interface variable so a nil *fakeRetriever
	// stays a nil interface inside the runner.
	var r rag.Retriever
	if retriever != nil {
		r = retriever
	}

	runner, err := NewRunner(Config{
		Router:      intent.NewRouter(0.6, nil),
		Retriever:   r,
		Executor:    tools.NewExecutor(tools.DefaultRegistry(), 2*time.Second, store),
		Interpreter: confirm.NewInterpreter(),
		Synthesizer: respond.NewSynthesizer(nil, nil, 0),
		Store:       store,
		MaxAttempts: 3,
	})
	require.NoError(t, err)
	return runner, store
}

func TestNewRunnerRequiresCollaborators(t *testing.T) {
	_, err := NewRunner(Config{})
	require.Error(t, err)
}

func TestGreetingTurn(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil, "Hola")
	final, out := runner.Run(context.Background(), state)

	assert.True(t, final.Done)
	assert.Equal(t, proto.NodeEnd, final.CurrentNode)
	assert.Equal(t, proto.IntentDirect, final.Intent)
	assert.Equal(t, "greeting", final.SubIntent)
	assert.Equal(t, proto.ResponseTemplate, final.ResponseKind)
	assert.NotEmpty(t, out.Text)
	assert.False(t, out.EndCall)

	// Both traversed nodes get timed.
	assert.Contains(t, final.NodeLatency, proto.NodeRouter)
	assert.Contains(t, final.NodeLatency, proto.NodeResponseGenerator)

	// The turn transcript carries the caller utterance and the reply.
	require.Len(t, final.Messages, 2)
	assert.Equal(t, proto.RoleUser, final.Messages[0].Role)
	assert.Equal(t, "Hola", final.Messages[0].Content)
	assert.Equal(t, proto.RoleAssistant, final.Messages[1].Role)
}

func TestCancellationConfirmationFlow(t *testing.T) {
	runner, store := newTestRunner(t, nil)
	ctx := context.Background()

	_, err := store.CreateReservation(ctx, &persistence.Reservation{
		TenantID:     "casa-pepe",
		CallID:       "call-0",
		CustomerName: "garcia",
		Date:         "2026-09-01",
		Time:         "20:30",
		Guests:       4,
	})
	require.NoError(t, err)

	// Turn 1: the request queues the tool and asks for confirmation
	// instead of executing.
	turn1 := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil,
		"quiero cancelar mi reservación")
	final1, out1 := runner.Run(ctx, turn1)

	require.NotNil(t, final1.PendingTool)
	assert.Equal(t, "cancel_reservation", final1.PendingTool.Name)
	assert.True(t, final1.PendingTool.RequiresConfirmation)
	assert.Equal(t, proto.ConfirmationPending, final1.ConfirmationStatus)
	assert.Equal(t, proto.ResponseConfirmation, final1.ResponseKind)
	assert.Contains(t, out1.Text, "cancelación")
	assert.False(t, out1.EndCall)

	reservation, err := store.FindReservation(ctx, "casa-pepe", "", "")
	require.NoError(t, err)
	assert.Equal(t, persistence.ReservationConfirmed, reservation.Status)

	// Turn 2: a bare yes resumes the queued tool and executes it.
	turn2 := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish,
		final1.Messages, "sí")
	turn2.PendingTool = final1.PendingTool
	turn2.ConfirmationStatus = final1.ConfirmationStatus
	turn2.ConfirmationAttempts = final1.ConfirmationAttempts

	final2, out2 := runner.Run(ctx, turn2)

	assert.Equal(t, proto.IntentConfirm, final2.Intent)
	assert.Nil(t, final2.PendingTool)
	assert.Equal(t, proto.ConfirmationNone, final2.ConfirmationStatus)
	require.NotNil(t, final2.LastToolResult)
	assert.True(t, final2.LastToolResult.Success)
	assert.Contains(t, out2.Text, "cancelada")

	_, err = store.FindReservation(ctx, "casa-pepe", "", "")
	assert.Error(t, err, "no confirmed reservation should remain")
}

func TestDenialClearsPendingTool(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil, "no, mejor no")
	state.PendingTool = &proto.PendingTool{
		Name:                 "create_order",
		RequiresConfirmation: true,
		ConfirmationMessage:  "¿Confirmo el pedido?",
		EnqueuedAt:           time.Now().UTC(),
	}
	state.ConfirmationStatus = proto.ConfirmationPending

	final, out := runner.Run(context.Background(), state)

	assert.Nil(t, final.PendingTool)
	assert.Equal(t, proto.ConfirmationDenied, final.ConfirmationStatus)
	assert.Nil(t, final.LastToolResult)
	assert.Equal(t, proto.ResponseConfirmation, final.ResponseKind)
	assert.NotEmpty(t, out.Text)
}

func TestUnclearAnswerAsksAgainThenForcesDenial(t *testing.T) {
	runner, _ := newTestRunner(t, nil)
	ctx := context.Background()

	pending := &proto.PendingTool{
		Name:                 "cancel_reservation",
		RequiresConfirmation: true,
		ConfirmationMessage:  "¿Confirmo la cancelación de su reserva?",
		EnqueuedAt:           time.Now().UTC(),
	}

	// First two unclear answers re-ask the question.
	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil, "no sé")
	state.PendingTool = pending
	state.ConfirmationStatus = proto.ConfirmationPending

	final, _ := runner.Run(ctx, state)
	assert.Equal(t, proto.ConfirmationPending, final.ConfirmationStatus)
	assert.Equal(t, 1, final.ConfirmationAttempts)
	require.NotNil(t, final.PendingTool)

	// Third unclear answer hits the attempt cap and is treated as a no.
	state = proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil, "no sé")
	state.PendingTool = pending
	state.ConfirmationStatus = proto.ConfirmationPending
	state.ConfirmationAttempts = 2

	final, out := runner.Run(ctx, state)
	assert.Equal(t, proto.ConfirmationDenied, final.ConfirmationStatus)
	assert.Nil(t, final.PendingTool)
	assert.Equal(t, 0, final.ConfirmationAttempts)
	assert.NotEmpty(t, out.Text)
	assert.Nil(t, final.LastToolResult)
}

func TestRetrievalFailureDegradesToApology(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeRetriever{err: errors.New("fts index gone")})

	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil,
		"¿cuál es el horario?")
	final, out := runner.Run(context.Background(), state)

	assert.Equal(t, proto.IntentRAG, final.Intent)
	assert.True(t, final.UsedRAG)
	require.NotNil(t, final.RAGResult)
	assert.False(t, final.RAGResult.Success)
	assert.Equal(t, proto.ResponseApology, final.ResponseKind)
	assert.NotEmpty(t, out.Text)
	assert.False(t, out.EndCall)
	require.NotEmpty(t, final.Errors)
	assert.Equal(t, proto.NodeRAG, final.Errors[0].Node)
}

func TestRetrievalSuccessSpeaksDocument(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeRetriever{result: &proto.RAGResult{
		Context: "## Horario\nAbrimos de martes a domingo de 13:00 a 23:00.",
		Sources: []string{"Horario"},
		Success: true,
	}})

	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil,
		"¿cuál es el horario?")
	final, out := runner.Run(context.Background(), state)

	assert.True(t, final.UsedRAG)
	assert.Equal(t, proto.ResponseTemplate, final.ResponseKind)
	assert.Contains(t, out.Text, "martes a domingo")
}

func TestNodePanicIsContained(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeRetriever{panics: true})

	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil,
		"¿cuál es el horario?")
	final, out := runner.Run(context.Background(), state)

	assert.True(t, final.Done)
	assert.NotEmpty(t, out.Text, "a panicking node still ends with a spoken reply")
	require.NotEmpty(t, final.Errors)
	assert.True(t, final.Errors[0].Recoverable)
	assert.Contains(t, final.Errors[0].Message, "panic")
}

func TestFarewellEndsCall(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil, "adiós")
	final, out := runner.Run(context.Background(), state)

	assert.Equal(t, "farewell", final.SubIntent)
	assert.True(t, out.EndCall)
	assert.Equal(t, "farewell", out.EndCallReason)
	assert.False(t, final.LastToolResult != nil && final.LastToolResult.ForwardToClient)
}

func TestTransferForwardsToClient(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	state := proto.NewTurnState("call-1", "casa-pepe", proto.LocaleSpanish, nil,
		"quiero hablar con una persona")
	final, out := runner.Run(context.Background(), state)

	assert.Equal(t, proto.IntentTransfer, final.Intent)
	require.NotNil(t, final.LastToolResult)
	assert.True(t, out.ForwardToClient)
	assert.False(t, out.EndCall)
	assert.NotEmpty(t, out.Text)
}
