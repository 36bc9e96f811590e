package anthropicimpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/pkg/llm"
)

func TestPrepareMessages_ExtractsSystem(t *testing.T) {
	system, alternating, err := prepareMessages([]llm.CompletionMessage{
		llm.NewSystemMessage("You answer restaurant questions."),
		llm.NewUserMessage("¿A qué hora abren?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "You answer restaurant questions.", system)
	require.Len(t, alternating, 1)
	assert.Equal(t, llm.RoleUser, alternating[0].Role)
}

func TestPrepareMessages_MergesConsecutiveUser(t *testing.T) {
	_, alternating, err := prepareMessages([]llm.CompletionMessage{
		llm.NewUserMessage("first"),
		llm.NewUserMessage("second"),
		llm.NewAssistantMessage("reply"),
		llm.NewUserMessage("third"),
	})
	require.NoError(t, err)
	require.Len(t, alternating, 3)
	assert.Equal(t, "first\n\nsecond", alternating[0].Content)
	assert.Equal(t, llm.RoleAssistant, alternating[1].Role)
}

func TestPrepareMessages_RejectsEmptyAndTrailingAssistant(t *testing.T) {
	_, _, err := prepareMessages(nil)
	assert.Error(t, err)

	_, _, err = prepareMessages([]llm.CompletionMessage{
		llm.NewUserMessage("hi"),
		llm.NewAssistantMessage("hello"),
	})
	assert.Error(t, err, "sequence ending with assistant must be rejected")
}

func TestClassifyError(t *testing.T) {
	err := classifyError(assert.AnError)
	assert.Equal(t, llm.ErrorTypeUnknown, llm.Classify(err))
}
