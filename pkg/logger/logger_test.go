package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magpie/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "empty level defaults to info",
			cfg:     &config.LoggingConfig{},
			wantErr: false,
		},
		{
			name:    "unknown level",
			cfg:     &config.LoggingConfig{Level: "loud"},
			wantErr: true,
		},
		{
			name: "file output",
			cfg: &config.LoggingConfig{
				Level: "info",
				File:  filepath.Join(t.TempDir(), "magpie.log"),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
		})
	}
}

func TestNewCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs", "magpie.log")

	log, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	log.Info("hello")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	base := NewTestLogger()

	child := base.WithField("account", "alice").WithField("page", 2)
	child.Info("walking")
	base.Info("plain")

	msgs := base.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]interface{}{"account": "alice", "page": 2}, msgs[0].Fields)
	assert.Empty(t, msgs[1].Fields)
}

func TestWithErrorCapturesError(t *testing.T) {
	base := NewTestLogger()

	base.WithError(os.ErrNotExist).Error("open failed")

	require.True(t, base.HasError())
	msgs := base.GetMessagesByLevel("error")
	require.Len(t, msgs, 1)
	assert.Equal(t, os.ErrNotExist, msgs[0].Error)
}

func TestInitializeSetsDefaultLogger(t *testing.T) {
	err := Initialize(&config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)

	assert.NotNil(t, GetLogger())
}
