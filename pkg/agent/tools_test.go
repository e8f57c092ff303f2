package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryn/sage/pkg/agent"
)

func TestCalculator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "addition", input: "2 + 3", want: "5"},
		{name: "subtraction", input: "10 - 4.5", want: "5.5"},
		{name: "multiplication", input: "127 * 49", want: "6223"},
		{name: "division", input: "9 / 2", want: "4.5"},
		{name: "surrounding whitespace", input: "  7 + 1  ", want: "8"},
		{name: "division by zero", input: "1 / 0", wantErr: true},
		{name: "unknown operator", input: "1 ^ 2", wantErr: true},
		{name: "too few fields", input: "1 +", wantErr: true},
		{name: "not a number", input: "one + 2", wantErr: true},
	}

	calc := agent.Calculator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Call(context.Background(), tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClock(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := agent.Clock{Now: func() time.Time { return fixed }}

	t.Run("defaults to UTC", func(t *testing.T) {
		got, err := clock.Call(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "Sat, 01 Jun 2024 12:00:00 UTC", got)
	})

	t.Run("named time zone", func(t *testing.T) {
		got, err := clock.Call(context.Background(), "Europe/Berlin")
		require.NoError(t, err)
		assert.Contains(t, got, "14:00:00")
	})

	t.Run("unknown time zone", func(t *testing.T) {
		_, err := clock.Call(context.Background(), "Atlantis/Central")
		assert.Error(t, err)
	})
}

func TestWordCount(t *testing.T) {
	wc := agent.WordCount{}

	got, err := wc.Call(context.Background(), "the quick brown fox jumps over the lazy dog")
	require.NoError(t, err)
	assert.Equal(t, "9", got)

	got, err = wc.Call(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestToolMetadata(t *testing.T) {
	for _, tool := range []interface {
		Name() string
		Description() string
	}{
		agent.Calculator{},
		agent.Clock{},
		agent.WordCount{},
	} {
		assert.NotEmpty(t, tool.Name())
		assert.NotEmpty(t, tool.Description())
	}
}
