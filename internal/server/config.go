package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/cardsforbots/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   *GameDefaults  `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address        string `hcl:"address,optional"`
	Port           int    `hcl:"port,optional"`
	LogLevel       string `hcl:"log_level,optional"`
	Store          string `hcl:"store,optional"`
	RedisAddr      string `hcl:"redis_addr,optional"`
	TickIntervalMS int    `hcl:"tick_interval_ms,optional"`
}

// GameDefaults seed the settings of newly created games; hosts can edit
// them per game while in the lobby.
type GameDefaults struct {
	MaxRounds            int    `hcl:"max_rounds,optional"`
	WinnerScoreThreshold int    `hcl:"winner_score_threshold,optional"`
	SubmissionTimeLimit  int    `hcl:"submission_time_limit,optional"`
	Theme                string `hcl:"theme,optional"`
	Provider             string `hcl:"provider,optional"`
	Model                string `hcl:"model,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:        "localhost",
			Port:           8080,
			LogLevel:       "info",
			Store:          "memory",
			RedisAddr:      "localhost:6379",
			TickIntervalMS: 1500,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file, falling
// back to defaults when the file does not exist.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.Store == "" {
		config.Server.Store = defaults.Server.Store
	}
	if config.Server.RedisAddr == "" {
		config.Server.RedisAddr = defaults.Server.RedisAddr
	}
	if config.Server.TickIntervalMS == 0 {
		config.Server.TickIntervalMS = defaults.Server.TickIntervalMS
	}

	return &config, nil
}

// Validate checks the configuration for errors
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid store %q (want memory or redis)", c.Server.Store)
	}
	if c.Server.TickIntervalMS < 100 {
		return fmt.Errorf("tick interval too short: %dms", c.Server.TickIntervalMS)
	}
	return nil
}

// GetServerAddress returns the host:port the server binds to.
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TickInterval returns the game tick period.
func (c *ServerConfig) TickInterval() time.Duration {
	return time.Duration(c.Server.TickIntervalMS) * time.Millisecond
}

// GameSettings returns the default settings for new games, with config
// overrides applied.
func (c *ServerConfig) GameSettings() game.Settings {
	s := game.DefaultSettings()
	if c.Game == nil {
		return s
	}
	if c.Game.MaxRounds > 0 {
		s.MaxRounds = c.Game.MaxRounds
	}
	if c.Game.WinnerScoreThreshold > 0 {
		s.WinnerScoreThresh = c.Game.WinnerScoreThreshold
	}
	if c.Game.SubmissionTimeLimit > 0 {
		s.SubmissionTimeLimit = c.Game.SubmissionTimeLimit
	}
	if c.Game.Theme != "" {
		s.Theme = c.Game.Theme
	}
	if c.Game.Provider != "" {
		s.Provider = c.Game.Provider
	}
	if c.Game.Model != "" {
		s.Model = c.Game.Model
	}
	return s
}
