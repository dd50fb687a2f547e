package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
)

// Config is the full server configuration, read from an HCL file.
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains table-level configuration. The starting balance is a
// decimal string so bankrolls stay exact.
type GameSettings struct {
	DBPath          string `hcl:"db_path,optional"`
	StartingBalance string `hcl:"starting_balance,optional"`
	LeaderboardSize int    `hcl:"leaderboard_size,optional"`
	RecentRounds    int    `hcl:"recent_rounds,optional"`
}

// Default returns the built-in configuration: a local listener and a database
// file in the working directory.
func Default() *Config {
	return &Config{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: &GameSettings{
			DBPath:          "sette_e_mezzo.db",
			StartingBalance: "100",
			LeaderboardSize: 5,
			RecentRounds:    10,
		},
	}
}

// Load reads configuration from an HCL file. A missing file is not an error:
// the defaults apply. Fields absent from the file fall back to their
// defaults individually.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	def := Default()
	if config.Server == nil {
		config.Server = def.Server
	} else {
		if config.Server.Address == "" {
			config.Server.Address = def.Server.Address
		}
		if config.Server.Port == 0 {
			config.Server.Port = def.Server.Port
		}
		if config.Server.LogLevel == "" {
			config.Server.LogLevel = def.Server.LogLevel
		}
	}
	if config.Game == nil {
		config.Game = def.Game
	} else {
		if config.Game.DBPath == "" {
			config.Game.DBPath = def.Game.DBPath
		}
		if config.Game.StartingBalance == "" {
			config.Game.StartingBalance = def.Game.StartingBalance
		}
		if config.Game.LeaderboardSize == 0 {
			config.Game.LeaderboardSize = def.Game.LeaderboardSize
		}
		if config.Game.RecentRounds == 0 {
			config.Game.RecentRounds = def.Game.RecentRounds
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	bal, err := c.StartingBalance()
	if err != nil {
		return err
	}
	if !bal.IsPositive() {
		return fmt.Errorf("starting balance must be positive, got %s", bal)
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// StartingBalance parses the opening bankroll for new players.
func (c *Config) StartingBalance() (decimal.Decimal, error) {
	bal, err := decimal.NewFromString(c.Game.StartingBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid starting balance %q: %w", c.Game.StartingBalance, err)
	}
	return bal, nil
}
