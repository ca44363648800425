package cmd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIKeyFlags(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:   "named instances",
			values: []string{"acme=key-acme", "beta=key-beta"},
			want:   map[string]string{"acme": "key-acme", "beta": "key-beta"},
		},
		{
			name:   "bare key goes to the default instance",
			values: []string{"key-solo"},
			want:   map[string]string{"default": "key-solo"},
		},
		{
			name:   "empty values are skipped",
			values: []string{"", "acme=key-acme"},
			want:   map[string]string{"acme": "key-acme"},
		},
		{
			name:    "empty instance name is rejected",
			values:  []string{"=key"},
			wantErr: true,
		},
		{
			name:    "empty key is rejected",
			values:  []string{"acme="},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAPIKeyFlags(tt.values, "default")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadAPIKeysFromEnv(t *testing.T) {
	t.Setenv("JOBNIMBUS_API_KEY", "key-default")
	t.Setenv("JOBNIMBUS_API_KEY_ACME", "key-acme")

	keys := map[string]string{}
	loadAPIKeysFromEnv(keys, "default")

	assert.Equal(t, "key-default", keys["default"])
	assert.Equal(t, "key-acme", keys["acme"])
}

func TestLoadAPIKeysFromEnv_FlagsWin(t *testing.T) {
	t.Setenv("JOBNIMBUS_API_KEY_ACME", "env-key")

	keys := map[string]string{"acme": "flag-key"}
	loadAPIKeysFromEnv(keys, "default")

	assert.Equal(t, "flag-key", keys["acme"])
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	logger := newLogger("debug", "json")
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	logger = newLogger("warn", "text")
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))

	// Unknown level falls back to info
	logger = newLogger("chatty", "json")
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
}
