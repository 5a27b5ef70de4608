package logging

import (
	"bytes"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {

	cases := map[string]zapcore.Level{
		"DEBUG":    zapcore.DebugLevel,
		"info":     zapcore.InfoLevel,
		"WARNING":  zapcore.WarnLevel,
		"ERROR":    zapcore.ErrorLevel,
		"CRITICAL": zapcore.DPanicLevel,
	}

	for name, expected := range cases {
		l, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, expected, l)
	}

	_, err := ParseLevel("TRACE")
	assert.ErrorIs(t, err, fieldusage.ErrConfiguration)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Config{Level: "INFO", Format: "default"}.Validate())
	assert.NoError(t, Config{Level: "DEBUG", Format: "ECS"}.Validate())
	assert.ErrorIs(t, Config{Level: "INFO", Format: "json"}.Validate(), fieldusage.ErrConfiguration)
	assert.ErrorIs(t, Config{Level: "LOUD", Format: "default"}.Validate(), fieldusage.ErrConfiguration)
}

func TestDefaultFormat(t *testing.T) {

	var buf bytes.Buffer

	logger, err := NewWithWriter(Config{Level: "INFO", Format: "default"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	logger.Warn("careful")
	logger.DPanic("bad things")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], " INFO shown")
	assert.Contains(t, lines[1], " WARNING careful")
	assert.Contains(t, lines[2], " CRITICAL bad things")
}

func TestECSFormat(t *testing.T) {

	var buf bytes.Buffer

	logger, err := NewWithWriter(Config{Level: "INFO", Format: "ecs"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("hello", zap.String("index", "logs-a"))

	line := buf.Bytes()
	require.True(t, gjson.ValidBytes(line))

	assert.Equal(t, "hello", gjson.GetBytes(line, "message").String())
	assert.Equal(t, "info", gjson.GetBytes(line, "log\\.level").String())
	assert.Equal(t, "logs-a", gjson.GetBytes(line, "index").String())
	assert.True(t, gjson.GetBytes(line, "ecs\\.version").Exists())
}

func TestBlacklist(t *testing.T) {

	var buf bytes.Buffer

	cfg := Config{
		Level:     "DEBUG",
		Format:    "default",
		Blacklist: []string{"elastic_transport"},
	}

	logger, err := NewWithWriter(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Named("elastic_transport").Info("dropped")
	logger.Named("elastic_transport").Named("child").Info("dropped too")
	logger.Named("elastic_transport_other").Info("kept other")
	logger.With(zap.String("k", "v")).Named("elastic_transport").Info("dropped with fields")
	logger.Info("kept root")

	out := buf.String()

	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept other")
	assert.Contains(t, out, "kept root")
}

func TestLogFile(t *testing.T) {

	path := filepath.Join(t.TempDir(), "es-fieldusage.log")

	logger, err := New(Config{Level: "INFO", Format: "default", File: path})
	require.NoError(t, err)

	logger.Info("first")
	require.NoError(t, logger.Sync())

	logger, err = New(Config{Level: "INFO", Format: "default", File: path})
	require.NoError(t, err)

	logger.Info("second")
	require.NoError(t, logger.Sync())

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(body), "first")
	assert.Contains(t, string(body), "second")
}
