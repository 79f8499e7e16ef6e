package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Str("store", "movies.txt").Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "movies.txt")

	assert.Equal(t, zerolog.InfoLevel, New(&buf, "bogus").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New(&buf, "").GetLevel())
}
