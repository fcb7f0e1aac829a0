package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Config
		wantErr string
	}{
		{
			name:  "empty",
			input: "",
			want:  Default(),
		},
		{
			name:  "overrides",
			input: "log_level: debug\nvalue_name: RESULT\nmax_elements: 100\nkeep_going: true\n",
			want: Config{
				LogLevel:    "debug",
				ValueName:   "RESULT",
				ArrayName:   "ATE_ARRAY",
				MaxElements: 100,
				KeepGoing:   true,
			},
		},
		{name: "unknown key", input: "colour: red\n", wantErr: "colour"},
		{name: "bad level", input: "log_level: loud\n", wantErr: "unknown log level"},
		{name: "bad name", input: "array_name: 9lives\n", wantErr: "invalid array_name"},
		{name: "negative limit", input: "max_elements: -1\n", wantErr: "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history_file: /tmp/h\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h", cfg.HistoryFile)
	assert.Equal(t, "warn", cfg.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAction(t *testing.T) {
	cfg := Default()
	cfg.MaxElements = 7
	a := cfg.Action()
	assert.Equal(t, "ATE_VALUE", a.ValueName)
	assert.Equal(t, 7, a.MaxElements)
	assert.Contains(t, cfg.String(), "max_elements: 7")
}
