package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Service: "cartd", Level: "debug", Out: &buf})

	log.WithField("item_id", "a").Info("item added")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "item added", line["message"])
	assert.Equal(t, "info", line["severity"])
	assert.Equal(t, "cartd", line["service"])
	assert.Equal(t, "a", line["item_id"])
	assert.Contains(t, line, "timestamp")
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Service: "cartui", Format: "TEXT", Out: &buf})

	log.Warn("storage slow")

	assert.Contains(t, buf.String(), "storage slow")
	assert.Contains(t, buf.String(), "service=cartui")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "error", Out: &buf})

	log.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
