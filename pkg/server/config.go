package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// TOMLConfig represents the structure of the server config file
type TOMLConfig struct {
	Server ServerSection `toml:"server"`
	Limits LimitsSection `toml:"limits"`
}

type ServerSection struct {
	TCPPort         int    `toml:"tcp_port"`
	HTTPPort        int    `toml:"http_port"`
	CredentialsPath string `toml:"credentials_path"`
	DefaultRoom     string `toml:"default_room"`
}

type LimitsSection struct {
	MaxMessageLength int `toml:"max_message_length"`
	HistorySize      int `toml:"history_size"`
}

// ServerConfig holds runtime server configuration
type ServerConfig struct {
	TCPPort          int
	HTTPPort         int
	DefaultRoom      string
	MaxMessageLength int
	HistorySize      int
}

// DefaultConfig returns default server configuration
func DefaultConfig() ServerConfig {
	return ServerConfig{
		TCPPort:          12345,
		HTTPPort:         8081,
		DefaultRoom:      "main",
		MaxMessageLength: 4096,
		HistorySize:      100,
	}
}

// DefaultTOMLConfig returns the default TOML configuration
func DefaultTOMLConfig() TOMLConfig {
	return TOMLConfig{
		Server: ServerSection{
			TCPPort:         12345,
			HTTPPort:        8081,
			CredentialsPath: "~/.parley/credentials.txt",
			DefaultRoom:     "main",
		},
		Limits: LimitsSection{
			MaxMessageLength: 4096,
			HistorySize:      100,
		},
	}
}

// LoadConfig loads configuration from a TOML file, creates default if not found
func LoadConfig(path string) (TOMLConfig, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return TOMLConfig{}, err
	}
	path = expanded

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, create default config
		config := DefaultTOMLConfig()
		if err := writeDefaultConfig(path, config); err != nil {
			// If we can't write, just return defaults without error
			// (might be a permissions issue, but we can still run)
			return config, nil
		}
		return config, nil
	}

	// Load from file
	var config TOMLConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return TOMLConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// writeDefaultConfig writes the default config to a file
func writeDefaultConfig(path string, config TOMLConfig) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	header := `# Parley Server Configuration
# This file was auto-generated with default values
# Edit as needed and restart the server for changes to take effect

`
	if _, err := f.WriteString(header); err != nil {
		return err
	}

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ToServerConfig converts TOMLConfig to ServerConfig
func (c *TOMLConfig) ToServerConfig() ServerConfig {
	cfg := DefaultConfig()

	if c.Server.TCPPort != 0 {
		cfg.TCPPort = c.Server.TCPPort
	}

	if c.Server.HTTPPort != 0 {
		cfg.HTTPPort = c.Server.HTTPPort
	}

	if strings.TrimSpace(c.Server.DefaultRoom) != "" {
		cfg.DefaultRoom = c.Server.DefaultRoom
	}

	if c.Limits.MaxMessageLength != 0 {
		cfg.MaxMessageLength = c.Limits.MaxMessageLength
	}

	if c.Limits.HistorySize != 0 {
		cfg.HistorySize = c.Limits.HistorySize
	}

	return cfg
}

// GetCredentialsPath returns the credentials path with ~ expanded
func (c *TOMLConfig) GetCredentialsPath() (string, error) {
	path := c.Server.CredentialsPath
	if strings.TrimSpace(path) == "" {
		path = DefaultTOMLConfig().Server.CredentialsPath
	}
	return expandHome(path)
}

// expandHome expands a leading ~/ in a path
func expandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}
