package calls

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func TestExtract_PlainJSON(t *testing.T) {
	llm := &fakeLLM{reply: `{"wants_booking":true,"name":"Sam","phone":"9378843414","street":"1 Main St","city":"Dayton","zip":"45402","issue":"leaky faucet","day":"wednesday","time_window":"morning"}`}
	e := NewExtractor(llm, nil)

	got, err := e.Extract(context.Background(), "caller: my faucet leaks")
	require.NoError(t, err)
	assert.True(t, got.WantsBooking)
	assert.Equal(t, "Sam", got.Name)
	assert.Equal(t, "morning", got.TimeWindow)
}

func TestExtract_CodeFencedJSON(t *testing.T) {
	llm := &fakeLLM{reply: "Here you go:\n```json\n{\"wants_booking\": false, \"issue\": \"pricing question\"}\n```"}
	e := NewExtractor(llm, nil)

	got, err := e.Extract(context.Background(), "caller: how much is a visit")
	require.NoError(t, err)
	assert.False(t, got.WantsBooking)
	assert.Equal(t, "pricing question", got.Issue)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name       string
		llm        *fakeLLM
		transcript string
	}{
		{"empty transcript", &fakeLLM{reply: "{}"}, "   "},
		{"llm error", &fakeLLM{err: errors.New("quota exceeded")}, "caller: hi"},
		{"no json in output", &fakeLLM{reply: "I could not determine that."}, "caller: hi"},
		{"malformed json", &fakeLLM{reply: `{"wants_booking": yes}`}, "caller: hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(tt.llm, nil)
			_, err := e.Extract(context.Background(), tt.transcript)
			assert.ErrorIs(t, err, ErrExtraction)
		})
	}
}
