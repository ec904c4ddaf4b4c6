package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	var buf bytes.Buffer
	log := InitWriter(&buf, "DEBUG", "text")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	buf.Reset()
	log = InitWriter(&buf, "chatty", "text")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid log level")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info", "json")
	WithCommand("score").WithField("role", "CB").Info("done")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "score", line["cmd"])
	assert.Equal(t, "CB", line["role"])
	assert.Equal(t, "done", line["msg"])
}

func TestGetReturnsConfigured(t *testing.T) {
	var buf bytes.Buffer
	log := InitWriter(&buf, "warn", "text")
	assert.Same(t, log, Get())
}
