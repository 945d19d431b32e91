// Package setup registers the phenorank MCP server with desktop MCP clients.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ServerName is the key phenorank is registered under.
const ServerName = "phenorank"

// ClientConfig is the client's MCP configuration file. Keys other than
// mcpServers are kept as they were.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`

	extra map[string]json.RawMessage
}

// ServerEntry launches one MCP server.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls Register.
type Options struct {
	ClientConfigPath string // defaults to DefaultClientConfigPath
	BinaryPath       string // defaults to the running executable
	ConfigFile       string // phenorank configuration passed with --config
	Env              map[string]string
}

// Status describes the current registration.
type Status struct {
	ClientConfigPath string
	Registered       bool
	Entry            ServerEntry
	Issues           []string
}

// DefaultClientConfigPath returns the desktop client's configuration file for
// this platform.
func DefaultClientConfigPath() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	return filepath.Join(dir, "claude_desktop_config.json"), nil
}

// LoadClientConfig reads path. A missing file yields an empty configuration.
func LoadClientConfig(path string) (*ClientConfig, error) {
	config := &ClientConfig{MCPServers: make(map[string]ServerEntry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}

	if err := json.Unmarshal(data, &config.extra); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if raw, ok := config.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(config.extra, "mcpServers")
	}
	if config.MCPServers == nil {
		config.MCPServers = make(map[string]ServerEntry)
	}
	return config, nil
}

// SaveClientConfig writes config to path, creating its directory.
func SaveClientConfig(path string, config *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(config.extra)+1)
	for k, v := range config.extra {
		out[k] = v
	}
	out["mcpServers"] = config.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write client config: %w", err)
	}
	return nil
}

// Register adds or replaces the phenorank entry and returns the config path
// written.
func Register(opts Options) (string, error) {
	path, err := clientConfigPath(opts.ClientConfigPath)
	if err != nil {
		return "", err
	}

	binary := opts.BinaryPath
	if binary == "" {
		if binary, err = os.Executable(); err != nil {
			return "", fmt.Errorf("could not locate phenorank binary: %w", err)
		}
	}
	if binary, err = filepath.Abs(binary); err != nil {
		return "", err
	}

	entry := ServerEntry{Command: binary, Args: []string{"mcp"}, Env: opts.Env}
	if opts.ConfigFile != "" {
		configFile, err := filepath.Abs(opts.ConfigFile)
		if err != nil {
			return "", err
		}
		entry.Args = append(entry.Args, "--config", configFile)
	}

	config, err := LoadClientConfig(path)
	if err != nil {
		return "", err
	}
	config.MCPServers[ServerName] = entry
	return path, SaveClientConfig(path, config)
}

// Unregister removes the phenorank entry. It reports whether one existed.
func Unregister(clientPath string) (bool, error) {
	path, err := clientConfigPath(clientPath)
	if err != nil {
		return false, err
	}
	config, err := LoadClientConfig(path)
	if err != nil {
		return false, err
	}
	if _, ok := config.MCPServers[ServerName]; !ok {
		return false, nil
	}
	delete(config.MCPServers, ServerName)
	return true, SaveClientConfig(path, config)
}

// GetStatus inspects the registration and the files it points at.
func GetStatus(clientPath string) (*Status, error) {
	path, err := clientConfigPath(clientPath)
	if err != nil {
		return nil, err
	}
	status := &Status{ClientConfigPath: path}

	config, err := LoadClientConfig(path)
	if err != nil {
		return nil, err
	}
	entry, ok := config.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "phenorank is not registered")
		return status, nil
	}
	status.Registered = true
	status.Entry = entry

	info, err := os.Stat(entry.Command)
	switch {
	case err != nil:
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	case info.Mode()&0111 == 0 && runtime.GOOS != "windows":
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	}
	for i, arg := range entry.Args {
		if arg == "--config" && i+1 < len(entry.Args) {
			if _, err := os.Stat(entry.Args[i+1]); err != nil {
				status.Issues = append(status.Issues, fmt.Sprintf("configuration file not found: %s", entry.Args[i+1]))
			}
		}
	}
	return status, nil
}

func clientConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultClientConfigPath()
}
