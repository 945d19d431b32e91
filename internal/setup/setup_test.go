package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "phenorank")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestRegister(t *testing.T) {
	dir := t.TempDir()
	clientPath := filepath.Join(dir, "client", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(clientPath), 0755))
	require.NoError(t, os.WriteFile(clientPath, []byte(`{
		"theme": "dark",
		"mcpServers": {"other": {"command": "/usr/bin/other"}}
	}`), 0644))

	binary := writeExecutable(t, dir)
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("store:\n  driver: sqlite\n"), 0644))

	path, err := Register(Options{ClientConfigPath: clientPath, BinaryPath: binary, ConfigFile: configFile})
	require.NoError(t, err)
	assert.Equal(t, clientPath, path)

	config, err := LoadClientConfig(clientPath)
	require.NoError(t, err)
	assert.Contains(t, config.MCPServers, "other")
	entry := config.MCPServers[ServerName]
	assert.Equal(t, binary, entry.Command)
	assert.Equal(t, []string{"mcp", "--config", configFile}, entry.Args)
	assert.JSONEq(t, `"dark"`, string(config.extra["theme"]))

	status, err := GetStatus(clientPath)
	require.NoError(t, err)
	assert.True(t, status.Registered)
	assert.Empty(t, status.Issues)
}

func TestLoadClientConfig_Missing(t *testing.T) {
	config, err := LoadClientConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.NotNil(t, config.MCPServers)
	assert.Empty(t, config.MCPServers)
}

func TestLoadClientConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadClientConfig(path)
	assert.Error(t, err)
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name           string
		entry          *ServerEntry
		wantRegistered bool
		wantIssues     int
	}{
		{
			name:       "not registered",
			wantIssues: 1,
		},
		{
			name:           "missing binary and config",
			entry:          &ServerEntry{Command: "/nonexistent/phenorank", Args: []string{"mcp", "--config", "/nonexistent/config.yaml"}},
			wantRegistered: true,
			wantIssues:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			config := &ClientConfig{MCPServers: map[string]ServerEntry{}}
			if tt.entry != nil {
				config.MCPServers[ServerName] = *tt.entry
			}
			require.NoError(t, SaveClientConfig(path, config))

			status, err := GetStatus(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRegistered, status.Registered)
			assert.Len(t, status.Issues, tt.wantIssues)
		})
	}
}

func TestUnregister(t *testing.T) {
	dir := t.TempDir()
	clientPath := filepath.Join(dir, "config.json")

	_, err := Register(Options{ClientConfigPath: clientPath, BinaryPath: writeExecutable(t, dir)})
	require.NoError(t, err)

	removed, err := Unregister(clientPath)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = Unregister(clientPath)
	require.NoError(t, err)
	assert.False(t, removed)
}
