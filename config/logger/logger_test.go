package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	config "github.com/crabzie/coresched/config/utils"
)

func testConfig(level string) *config.Logger {
	return &config.Logger{
		Level:             level,
		Encoding:          "json",
		DisableStacktrace: true,
		EncoderConfig:     zap.NewProductionEncoderConfig(),
	}
}

func TestBuildSplitsStreamsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	log, err := build(testConfig("info"), &out, &errOut)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("dispatched", zap.Int("job_id", 3))
	log.Error("broken")
	require.NoError(t, log.Sync())

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"job_id":3`)
	assert.NotContains(t, out.String(), "broken")
	assert.Contains(t, errOut.String(), "broken")
}

func TestSetLevelChangesFiltering(t *testing.T) {
	var out bytes.Buffer
	log, err := build(testConfig("info"), &out, &bytes.Buffer{})
	require.NoError(t, err)

	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, atomicLevel.Level())
	log.Debug("now visible")
	assert.Contains(t, out.String(), "now visible")

	SetLevel("not-a-level")
	assert.Equal(t, zapcore.DebugLevel, atomicLevel.Level())
}

func TestBuildRejectsUnknownLevel(t *testing.T) {
	_, err := build(testConfig("loud"), &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}
