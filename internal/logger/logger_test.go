package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", Debug},
		{"", Info},
		{"INFO", Info},
		{"warning", Warn},
		{"error", Error},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestNewFromConfig(t *testing.T) {
	_, _, err := NewFromConfig("loud", "json")
	assert.Error(t, err)

	l, sync, err := NewFromConfig("warn", "console")
	require.NoError(t, err)
	defer sync()
	assert.NotNil(t, l.With("source", "test"))
}
