package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig represents operator preferences stored in ~/.autobuild/config.json
type UserConfig struct {
	// Session used by CLI commands when none is given
	DefaultSession string `json:"default_session,omitempty"`

	// Daemon socket used by CLI commands when none is given
	SocketPath string `json:"socket_path,omitempty"`
}

// UserConfigHandler manages loading and saving user configuration
type UserConfigHandler struct {
	configPath string
}

// NewUserConfigHandler creates a handler for ~/.autobuild/config.json
func NewUserConfigHandler() (*UserConfigHandler, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewUserConfigHandlerAt(filepath.Join(homeDir, ".autobuild"))
}

// NewUserConfigHandlerAt creates a handler for config.json inside dir
func NewUserConfigHandlerAt(dir string) (*UserConfigHandler, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &UserConfigHandler{configPath: filepath.Join(dir, "config.json")}, nil
}

// Load reads the user config from disk
func (h *UserConfigHandler) Load() (*UserConfig, error) {
	// If file doesn't exist, return empty config
	if _, err := os.Stat(h.configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(h.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var config UserConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return &config, nil
}

// Save writes the user config to disk
func (h *UserConfigHandler) Save(config *UserConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(h.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}

// SetDefaultSession sets the session CLI commands fall back to
func (h *UserConfigHandler) SetDefaultSession(sessionID string) error {
	config, err := h.Load()
	if err != nil {
		return err
	}
	config.DefaultSession = sessionID
	return h.Save(config)
}

// SetSocketPath sets the daemon socket CLI commands fall back to
func (h *UserConfigHandler) SetSocketPath(path string) error {
	config, err := h.Load()
	if err != nil {
		return err
	}
	config.SocketPath = path
	return h.Save(config)
}

// Clear removes every preference
func (h *UserConfigHandler) Clear() error {
	return h.Save(&UserConfig{})
}

// GetConfigPath returns the path to the user config file
func (h *UserConfigHandler) GetConfigPath() string {
	return h.configPath
}
