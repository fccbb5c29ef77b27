package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahjazly/unified-notifier/internal/config"
)

func TestNewLogger_Level(t *testing.T) {
	log, err := NewLogger(&config.Config{Logger: config.LoggerConfig{Level: "debug"}})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := NewLogger(&config.Config{Logger: config.LoggerConfig{Level: "extremely-loud"}})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
