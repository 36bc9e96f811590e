package proto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_NilPatchIsNoop(t *testing.T) {
	s := NewTurnState("call-1", "tenant-1", LocaleSpanish, nil, "hola")
	before := *s
	Apply(s, nil)
	assert.Equal(t, before.Intent, s.Intent)
	assert.Equal(t, before.Input, s.Input)
}

func TestApply_ScalarLastWriteWins(t *testing.T) {
	s := NewTurnState("call-1", "tenant-1", LocaleEnglish, nil, "hello")

	Apply(s, &StatePatch{Intent: Ptr(IntentRAG), Confidence: Ptr(0.7)})
	Apply(s, &StatePatch{Intent: Ptr(IntentTool), Confidence: Ptr(0.9)})

	assert.Equal(t, IntentTool, s.Intent)
	assert.Equal(t, 0.9, s.Confidence)
}

func TestApply_InvalidIntentCoercesToUnknown(t *testing.T) {
	s := NewTurnState("call-1", "tenant-1", LocaleEnglish, nil, "hello")
	Apply(s, &StatePatch{Intent: Ptr(Intent("garbage"))})
	assert.Equal(t, IntentUnknown, s.Intent)
}

func TestApply_ErrorsAppendOnly(t *testing.T) {
	s := NewTurnState("call-1", "tenant-1", LocaleSpanish, nil, "hola")

	Apply(s, &StatePatch{AppendErrors: []GraphError{RecoverableError(NodeRouter, "first")}})
	Apply(s, &StatePatch{AppendErrors: []GraphError{RecoverableError(NodeRAG, "second")}})

	require.Len(t, s.Errors, 2)
	assert.Equal(t, "first", s.Errors[0].Message)
	assert.Equal(t, "second", s.Errors[1].Message)
	assert.True(t, s.Errors[0].Recoverable)
}

func TestApply_NodeLatencyPerKeyMerge(t *testing.T) {
	s := NewTurnState("call-1", "tenant-1", LocaleSpanish, nil, "hola")

	Apply(s, &StatePatch{NodeLatency: map[NodeName]time.Duration{NodeRouter: 5 * time.Millisecond}})
	Apply(s, &StatePatch{NodeLatency: map[NodeName]time.Duration{NodeRAG: 80 * time.Millisecond}})
	Apply(s, &StatePatch{NodeLatency: map[NodeName]time.Duration{NodeRouter: 7 * time.Millisecond}})

	assert.Equal(t, 7*time.Millisecond, s.NodeLatency[NodeRouter])
	assert.Equal(t, 80*time.Millisecond, s.NodeLatency[NodeRAG])
}

func TestApply_PendingToolSetAndClear(t *testing.T) {
	s := NewTurnState("call-1", "tenant-1", LocaleSpanish, nil, "hola")

	pt := &PendingTool{Name: "create_reservation", RequiresConfirmation: true, EnqueuedAt: time.Now()}
	Apply(s, &StatePatch{PendingTool: pt})
	require.NotNil(t, s.PendingTool)
	assert.Equal(t, "create_reservation", s.PendingTool.Name)

	// An empty patch must not clear it.
	Apply(s, &StatePatch{})
	require.NotNil(t, s.PendingTool)

	Apply(s, &StatePatch{ClearPendingTool: true})
	assert.Nil(t, s.PendingTool)
}

func TestApply_EntitiesMerge(t *testing.T) {
	s := NewTurnState("call-1", "tenant-1", LocaleSpanish, nil, "hola")

	Apply(s, &StatePatch{Entities: map[string]string{"date": "2026-09-01"}})
	Apply(s, &StatePatch{Entities: map[string]string{"guests": "4", "date": "2026-09-02"}})

	assert.Equal(t, "2026-09-02", s.Entities["date"])
	assert.Equal(t, "4", s.Entities["guests"])
}

func TestNewTurnState_Defaults(t *testing.T) {
	s := NewTurnState("c", "t", Locale("zz"), nil, "x")
	assert.Equal(t, LocaleSpanish, s.Locale, "unsupported locale falls back to Spanish")
	assert.Equal(t, IntentUnknown, s.Intent)
	assert.Equal(t, ConfirmationNone, s.ConfirmationStatus)
	assert.Equal(t, NodeRouter, s.CurrentNode)
}

func TestResponseOut_ForwardFlag(t *testing.T) {
	s := NewTurnState("c", "t", LocaleEnglish, nil, "x")
	s.Response = "Transferring you now."
	s.LastToolResult = &ToolExecutionResult{Success: true, ForwardToClient: true}

	out := s.ResponseOut()
	assert.True(t, out.ForwardToClient)
	assert.False(t, out.EndCall)
	assert.Equal(t, "Transferring you now.", out.Text)
}
