package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			logger := NewWithWriter(&bytes.Buffer{}, tt.in, false)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", false)
	logger.Info().Str("section", "request").Msg("message encoded")
	logger.Debug().Msg("dropped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "message encoded", entry["message"])
	assert.Equal(t, "request", entry["section"])
	assert.Contains(t, entry, "time")
}

func TestNewWithWriterPretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", true)
	logger.Warn().Msg("truncated")

	assert.Contains(t, buf.String(), "truncated")
	assert.NotContains(t, buf.String(), `"message"`)
}
