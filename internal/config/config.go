package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const configDir = ".uichat"
const configFile = "config.json"

// Defaults applied by the accessors when a field is unset.
const (
	DefaultServer     = "http://localhost:3001"
	DefaultListenAddr = ":3001"
	DefaultChunkDelay = 300 * time.Millisecond
)

// Transports.
const (
	TransportSSE = "sse"
	TransportWS  = "ws"
)

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Environment variables that override file values.
const (
	EnvServer    = "UICHAT_SERVER"
	EnvTransport = "UICHAT_TRANSPORT"
	EnvPort      = "PORT"
)

type Config struct {
	Server       string `json:"server"`
	Transport    string `json:"transport,omitempty"`
	Theme        string `json:"theme,omitempty"`
	ListenAddr   string `json:"listen_addr,omitempty"`
	ChunkDelayMS int    `json:"chunk_delay_ms,omitempty"`
	Profile      string `json:"-"`
}

func configPath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.json", profile)
	}
	return filepath.Join(home, configDir, filename), nil
}

func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Profile: profile}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Profile = profile
	return &cfg, nil
}

func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ─── Environment ────────────────────────────────────────────────────────────

// LoadEnv loads KEY=VALUE pairs from a .env file into the process
// environment. Variables already set are not overwritten. A missing file is
// not an error unless required is set.
func LoadEnv(path string, required bool) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with the UICHAT_* and PORT variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvServer); v != "" {
		c.Server = v
	}
	if v := os.Getenv(EnvTransport); v != "" {
		c.Transport = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPort); v != "" {
		c.ListenAddr = ":" + v
	}
}

// ─── Accessors ──────────────────────────────────────────────────────────────

func (c *Config) ServerURL() string {
	if c.Server == "" {
		return DefaultServer
	}
	return c.Server
}

func (c *Config) TransportName() string {
	if c.Transport == "" {
		return TransportSSE
	}
	return c.Transport
}

func (c *Config) ThemeName() string {
	if c.Theme == "" {
		return ThemeDark
	}
	return c.Theme
}

func (c *Config) Listen() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

func (c *Config) ChunkDelay() time.Duration {
	if c.ChunkDelayMS <= 0 {
		return DefaultChunkDelay
	}
	return time.Duration(c.ChunkDelayMS) * time.Millisecond
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

func (c *Config) Validate() error {
	pf := c.profileFlag()
	u, err := url.Parse(c.ServerURL())
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q. Run: uichat%s set server <http://host:port>", c.ServerURL(), pf)
	}
	switch c.TransportName() {
	case TransportSSE, TransportWS:
	default:
		return fmt.Errorf("unknown transport %q (want sse or ws). Run: uichat%s set transport sse", c.Transport, pf)
	}
	switch c.ThemeName() {
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("unknown theme %q (want dark or light). Run: uichat%s set theme dark", c.Theme, pf)
	}
	return nil
}

func ListProfiles() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home directory: %w", err)
	}
	dir := filepath.Join(home, configDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".json") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".json"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
