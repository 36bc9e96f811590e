package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/pkg/llm"
	"concierge/pkg/proto"
)

func TestClassifyKeywordIntents(t *testing.T) {
	router := NewRouter(0.6, nil)

	tests := []struct {
		name      string
		input     string
		locale    proto.Locale
		intent    proto.Intent
		subIntent string
	}{
		{
			name:      "spanish greeting",
			input:     "Hola, buenos días",
			locale:    proto.LocaleSpanish,
			intent:    proto.IntentDirect,
			subIntent: "greeting",
		},
		{
			name:      "spanish cancel reservation",
			input:     "quiero cancelar mi reservación",
			locale:    proto.LocaleSpanish,
			intent:    proto.IntentTool,
			subIntent: "reservation.cancel",
		},
		{
			name:      "spanish create reservation",
			input:     "quisiera reservar una mesa para cuatro personas",
			locale:    proto.LocaleSpanish,
			intent:    proto.IntentTool,
			subIntent: "reservation.create",
		},
		{
			name:      "spanish hours question",
			input:     "¿cuál es el horario de apertura?",
			locale:    proto.LocaleSpanish,
			intent:    proto.IntentRAG,
			subIntent: "info.hours",
		},
		{
			name:      "spanish transfer request",
			input:     "quiero hablar con una persona de verdad",
			locale:    proto.LocaleSpanish,
			intent:    proto.IntentTransfer,
			subIntent: "",
		},
		{
			name:      "english booking",
			input:     "I'd like to book a table for two people",
			locale:    proto.LocaleEnglish,
			intent:    proto.IntentTool,
			subIntent: "reservation.create",
		},
		{
			name:      "english hours question",
			input:     "what are your opening hours?",
			locale:    proto.LocaleEnglish,
			intent:    proto.IntentRAG,
			subIntent: "info.hours",
		},
		{
			name:      "english transfer",
			input:     "can I speak to a person please",
			locale:    proto.LocaleEnglish,
			intent:    proto.IntentTransfer,
			subIntent: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, degraded := router.Classify(context.Background(), tt.input, tt.locale, false)
			assert.False(t, degraded)
			assert.Equal(t, tt.intent, result.Intent)
			assert.Equal(t, tt.subIntent, result.SubIntent)
			assert.GreaterOrEqual(t, result.Confidence, 0.3)
		})
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	router := NewRouter(0.6, nil)
	result, degraded := router.Classify(context.Background(), "   ", proto.LocaleSpanish, false)
	assert.False(t, degraded)
	assert.Equal(t, proto.IntentDirect, result.Intent)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestClassifyYesNoPreemptsWhenConfirmationOutstanding(t *testing.T) {
	router := NewRouter(0.6, nil)

	// "sí" alone is an answer to the outstanding question.
	result, _ := router.Classify(context.Background(), "sí", proto.LocaleSpanish, true)
	assert.Equal(t, proto.IntentConfirm, result.Intent)
	assert.GreaterOrEqual(t, result.Confidence, 0.9)

	// Without an outstanding confirmation the same input is small talk,
	// never confirm.
	result, _ = router.Classify(context.Background(), "sí", proto.LocaleSpanish, false)
	assert.NotEqual(t, proto.IntentConfirm, result.Intent)

	result, _ = router.Classify(context.Background(), "no", proto.LocaleEnglish, true)
	assert.Equal(t, proto.IntentConfirm, result.Intent)
}

func TestClassifyUnmatchedFallsBackToDirect(t *testing.T) {
	router := NewRouter(0.6, nil)
	result, degraded := router.Classify(context.Background(), "zzz qqq www", proto.LocaleSpanish, false)
	assert.False(t, degraded)
	assert.Equal(t, proto.IntentDirect, result.Intent)
	assert.InDelta(t, 0.3, result.Confidence, 0.001)
}

func TestClassifyLLMFallbackOnLowConfidence(t *testing.T) {
	mock := llm.NewMockClient(llm.CompletionResponse{
		Content: `{"intent": "rag", "confidence": 0.85, "entities": {"date": "tomorrow"}}`,
	})
	router := NewRouter(0.6, mock)

	result, degraded := router.Classify(context.Background(),
		"una cosa sobre lo de ayer", proto.LocaleSpanish, false)
	require.False(t, degraded)
	assert.Equal(t, proto.IntentRAG, result.Intent)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, "tomorrow", result.Entities["date"])
	assert.Len(t, mock.Calls(), 1)
}

func TestClassifyLLMFallbackErrorKeepsKeywordResult(t *testing.T) {
	mock := llm.NewFailingMockClient(llm.NewError(llm.ErrorTypeAuth, "bad key"))
	router := NewRouter(0.6, mock)

	result, degraded := router.Classify(context.Background(), "zzz qqq", proto.LocaleSpanish, false)
	assert.False(t, degraded)
	assert.Equal(t, proto.IntentDirect, result.Intent)
}

func TestClassifyHighConfidenceSkipsLLM(t *testing.T) {
	mock := llm.NewMockClient(llm.CompletionResponse{
		Content: `{"intent": "direct", "confidence": 0.9}`,
	})
	router := NewRouter(0.6, mock)

	_, _ = router.Classify(context.Background(), "quiero cancelar mi reserva", proto.LocaleSpanish, false)
	assert.Empty(t, mock.Calls())
}

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		locale proto.Locale
		want   map[string]string
	}{
		{
			name:   "spanish reservation details",
			input:  "una mesa para 4 personas mañana a las 8",
			locale: proto.LocaleSpanish,
			want:   map[string]string{"guests": "4", "date": "tomorrow", "time": "8:00"},
		},
		{
			name:   "spanish half hour",
			input:  "resérvame a las 9 y media",
			locale: proto.LocaleSpanish,
			want:   map[string]string{"time": "9:30"},
		},
		{
			name:   "explicit 24h time",
			input:  "cambia la reserva a las 20:30",
			locale: proto.LocaleSpanish,
			want:   map[string]string{"time": "20:30"},
		},
		{
			name:   "english pm time and party size",
			input:  "table for 6 people at 7pm tomorrow",
			locale: proto.LocaleEnglish,
			want:   map[string]string{"guests": "6", "time": "19:00", "date": "tomorrow"},
		},
		{
			name:   "name and phone",
			input:  "me llamo maria lopez, mi número es 600 11 22 33",
			locale: proto.LocaleSpanish,
			want:   map[string]string{"name": "maria lopez", "phone": "600112233"},
		},
		{
			name:   "number words",
			input:  "somos cinco personas",
			locale: proto.LocaleSpanish,
			want:   map[string]string{"guests": "5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.input, tt.locale)
			for k, v := range tt.want {
				assert.Equal(t, v, got[k], "entity %s", k)
			}
		})
	}
}
