package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ochronus/gofileup/internal/services/gofile"
	"github.com/sirupsen/logrus"
)

const (
	MinTimeout = 1
	MaxTimeout = 300

	serverPlaceholder = "{server}"
)

// Config represents the main application configuration
type Config struct {
	APIURL      string       `toml:"api_url"`
	BindAddress string       `toml:"bind_address"`
	Loglevel    string       `toml:"loglevel"`
	Password    string       `toml:"password"`
	Port        int          `toml:"port"`
	Timeout     int          `toml:"timeout"`
	UploadURL   string       `toml:"upload_url"`
	Username    string       `toml:"username"`
	Zone        string       `toml:"zone"`
	Upload      UploadConfig `toml:"upload"`
}

// UploadConfig holds optional settings sent with every upload
type UploadConfig struct {
	ExtraFields map[string]string `toml:"extra_fields"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		APIURL:      gofile.DefaultAPIURL,
		BindAddress: "127.0.0.1",
		Loglevel:    "info",
		Port:        8085,
		Timeout:     int(gofile.DefaultTimeout / time.Second),
		UploadURL:   gofile.DefaultUploadURL,
		Zone:        gofile.DefaultZone,
	}
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "gofileup")

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads configuration from a TOML file
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configPath, falling back to defaults when the file does not exist
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(configPath)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Loglevel); err != nil {
		return fmt.Errorf("loglevel must be one of: panic, fatal, error, warn, info, debug, trace")
	}

	if c.Zone == "" {
		return fmt.Errorf("zone is required")
	}

	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if _, err := url.ParseRequestURI(c.APIURL); err != nil {
		return fmt.Errorf("api_url is invalid: %v", err)
	}

	if !strings.Contains(c.UploadURL, serverPlaceholder) {
		return fmt.Errorf("upload_url must contain %s", serverPlaceholder)
	}
	if _, err := url.ParseRequestURI(strings.ReplaceAll(c.UploadURL, serverPlaceholder, "store1")); err != nil {
		return fmt.Errorf("upload_url is invalid: %v", err)
	}

	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return fmt.Errorf("timeout must be between %d and %d seconds", MinTimeout, MaxTimeout)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if (c.Username == "") != (c.Password == "") {
		return fmt.Errorf("username and password must be set together")
	}

	if !c.AuthEnabled() && !isLoopback(c.BindAddress) {
		return fmt.Errorf("bind_address %s is not loopback, username and password are required", c.BindAddress)
	}

	return nil
}

// isLoopback reports whether host only accepts local connections
func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// AuthEnabled reports whether the HTTP trigger requires basic auth
func (c *Config) AuthEnabled() bool {
	return c.Username != "" && c.Password != ""
}
