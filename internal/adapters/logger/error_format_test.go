package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []logger.ErrorEntry
	}{
		{
			name: "stdlib error",
			err:  errors.New("plain"),
			want: []logger.ErrorEntry{{Message: "plain"}},
		},
		{
			name: "single zerr",
			err:  zerr.New("config parse failed"),
			want: []logger.ErrorEntry{{Message: "config parse failed", Metadata: map[string]any{}}},
		},
		{
			name: "wrapped stdlib cause",
			err:  zerr.Wrap(errors.New("EOF"), "failed to read config"),
			want: []logger.ErrorEntry{
				{Message: "failed to read config", Metadata: map[string]any{}},
				{Message: "EOF"},
			},
		},
		{
			name: "metadata on stdlib error moves to the cause",
			err:  zerr.With(errors.New("missing"), "path", "app/sw.js"),
			want: []logger.ErrorEntry{
				{Message: "missing", Metadata: map[string]any{"path": "app/sw.js"}},
			},
		},
		{
			name: "stacked metadata merges",
			err:  zerr.With(zerr.With(zerr.New("task failed"), "task", "copy:sass"), "action", "sass"),
			want: []logger.ErrorEntry{
				{Message: "task failed", Metadata: map[string]any{"task": "copy:sass", "action": "sass"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.CollectErrorEntries(tt.err))
		})
	}
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "boom"}},
			want:    "Error: boom",
		},
		{
			name: "metadata sorted",
			entries: []logger.ErrorEntry{
				{Message: "boom", Metadata: map[string]any{"z": 1, "a": "x"}},
			},
			want: "Error: boom\n       a: x\n       z: 1",
		},
		{
			name: "causes and multiline",
			entries: []logger.ErrorEntry{
				{Message: "style compile failed"},
				{Message: "expected \";\"\n  line 3", Metadata: map[string]any{"file": "styles.scss"}},
			},
			want: "Error: style compile failed\n\n  Caused by:\n    → expected \";\"\n        line 3\n      file: styles.scss",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}

func TestCollectAndFormatIntegration(t *testing.T) {
	err := zerr.With(zerr.Wrap(errors.New("permission denied"), "failed to write file"), "path", "dist/index.html")
	entries := logger.CollectErrorEntries(err)
	require.Len(t, entries, 2)

	got := logger.FormatErrorEntries(entries)
	assert.Equal(t, "Error: failed to write file\n       path: dist/index.html\n\n  Caused by:\n    → permission denied", got)
}
