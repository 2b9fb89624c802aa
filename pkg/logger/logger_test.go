package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "text debug", level: "debug", format: "text"},
		{name: "upper case level", level: "WARN", format: "json"},
		{name: "bad level", level: "loud", format: "json", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestKeyValueFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "collector")

	log.Info("page processed", "page", 2, "new_rows", 5)
	log.Warn("row skipped", "reason", "missing download control")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "page processed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "collector", fields["component"])
	assert.EqualValues(t, 2, fields["page"])
	assert.EqualValues(t, 5, fields["new_rows"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNopDiscards(t *testing.T) {
	log := NewNop()
	log.Error("ignored", "k", "v")
	assert.NoError(t, log.Sync())
}
