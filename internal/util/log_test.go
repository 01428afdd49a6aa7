package util_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github/chapool/go-airdrop/internal/util"
)

func TestLogFromContextFallsBackToGlobal(t *testing.T) {
	assert.Equal(t, &log.Logger, util.LogFromContext(context.Background()))
}

func TestLogFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("run_id", "abc").Logger()
	ctx := l.WithContext(context.Background())

	util.LogFromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"run_id":"abc"`)
}

func TestLogLevelFromString(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, util.LogLevelFromString("debug"))
	assert.Equal(t, zerolog.WarnLevel, util.LogLevelFromString("warn"))
	assert.Equal(t, zerolog.InfoLevel, util.LogLevelFromString("loud"))
}
