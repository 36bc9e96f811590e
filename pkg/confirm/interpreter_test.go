package confirm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"concierge/pkg/proto"
)

func TestInterpretConfirmed(t *testing.T) {
	in := NewInterpreter()

	tests := []struct {
		input  string
		locale proto.Locale
	}{
		{"sí", proto.LocaleSpanish},
		{"Sí, claro", proto.LocaleSpanish},
		{"vale, perfecto", proto.LocaleSpanish},
		{"adelante", proto.LocaleSpanish},
		{"yes", proto.LocaleEnglish},
		{"yeah, go ahead", proto.LocaleEnglish},
		{"sounds good", proto.LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := in.Interpret(tt.input, tt.locale, "create_reservation", "")
			assert.True(t, result.Understood)
			assert.Equal(t, proto.ConfirmationConfirmed, result.Status)
			assert.GreaterOrEqual(t, result.Confidence, 0.8)
		})
	}
}

func TestInterpretIsIdempotent(t *testing.T) {
	in := NewInterpreter()
	first := in.Interpret("sí", proto.LocaleSpanish, "", "")
	second := in.Interpret("sí", proto.LocaleSpanish, "", "")
	assert.Equal(t, first, second)
	assert.Equal(t, proto.ConfirmationConfirmed, first.Status)
}

func TestInterpretDenied(t *testing.T) {
	in := NewInterpreter()

	tests := []struct {
		input  string
		locale proto.Locale
	}{
		{"no", proto.LocaleSpanish},
		{"no, gracias", proto.LocaleSpanish},
		{"mejor no", proto.LocaleSpanish},
		{"olvídalo", proto.LocaleSpanish},
		{"no thanks", proto.LocaleEnglish},
		{"never mind", proto.LocaleEnglish},
		{"cancel that", proto.LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := in.Interpret(tt.input, tt.locale, "cancel_reservation", "")
			assert.True(t, result.Understood)
			assert.Equal(t, proto.ConfirmationDenied, result.Status)
			assert.GreaterOrEqual(t, result.Confidence, 0.8)
			assert.NotEmpty(t, result.Message)
		})
	}
}

// A reply that opens with a yes but carries an explicit refusal must never
// run the tool.
func TestInterpretAffirmativeOpenerWithRefusal(t *testing.T) {
	in := NewInterpreter()

	tests := []struct {
		input  string
		locale proto.Locale
	}{
		{"sí, pero mejor no", proto.LocaleSpanish},
		{"sí, bueno, olvídalo", proto.LocaleSpanish},
		{"vale pero no lo hagas", proto.LocaleSpanish},
		{"yes but actually no, don't", proto.LocaleEnglish},
		{"sure, wait, cancel that", proto.LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := in.Interpret(tt.input, tt.locale, "cancel_reservation", "")
			assert.True(t, result.Understood)
			assert.Equal(t, proto.ConfirmationDenied, result.Status)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestInterpretToolSpecificDenial(t *testing.T) {
	in := NewInterpreter()

	withTool := in.Interpret("no", proto.LocaleSpanish, "cancel_reservation", "")
	assert.Contains(t, withTool.Message, "su reserva se mantiene")

	unknownTool := in.Interpret("no", proto.LocaleSpanish, "some_future_tool", "")
	assert.Equal(t, denialMessages[proto.LocaleSpanish][""], unknownTool.Message)
}

func TestInterpretUnclear(t *testing.T) {
	in := NewInterpreter()

	tests := []struct {
		input  string
		locale proto.Locale
	}{
		{"no sé", proto.LocaleSpanish},
		{"tal vez", proto.LocaleSpanish},
		{"¿qué reserva?", proto.LocaleSpanish},
		{"maybe", proto.LocaleEnglish},
		{"not sure", proto.LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := in.Interpret(tt.input, tt.locale, "", "¿Confirma la reserva?")
			assert.False(t, result.Understood)
			assert.Equal(t, proto.ConfirmationPending, result.Status)
			assert.LessOrEqual(t, result.Confidence, 0.3)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestInterpretEchoesOriginalQuestionWhenAmbiguous(t *testing.T) {
	in := NewInterpreter()
	result := in.Interpret("el gato está en el tejado", proto.LocaleSpanish, "", "¿Confirma la cancelación?")
	assert.Equal(t, proto.ConfirmationPending, result.Status)
	assert.Contains(t, result.Message, "Necesito una respuesta clara.")
	assert.Contains(t, result.Message, "¿Confirma la cancelación?")
}

func TestInterpretEmptyInput(t *testing.T) {
	in := NewInterpreter()
	result := in.Interpret("   ", proto.LocaleSpanish, "", "")
	assert.False(t, result.Understood)
	assert.Equal(t, proto.ConfirmationPending, result.Status)
	assert.Equal(t, 0.0, result.Confidence)
	assert.NotEmpty(t, result.Message)
}

func TestInterpretFuzzyContainment(t *testing.T) {
	in := NewInterpreter()

	// Not covered by the strict anchored regexes, caught by term scan.
	result := in.Interpret("pues hombre claro", proto.LocaleSpanish, "", "")
	assert.Equal(t, proto.ConfirmationConfirmed, result.Status)
	assert.Equal(t, 0.8, result.Confidence)

	// A negative term anywhere wins over a positive one.
	result = in.Interpret("pues si pero mejor que no", proto.LocaleSpanish, "", "")
	assert.Equal(t, proto.ConfirmationDenied, result.Status)
}
