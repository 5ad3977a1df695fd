// Package config loads the daemon configuration from a YAML file with
// environment-variable overrides. Flags are parsed here so every entry
// point resolves settings the same way: flag > env > file > default.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text|json
	} `yaml:"logging"`
	AI struct {
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"ai"`
	Lifecycle struct {
		SentMS      int `yaml:"sent_ms"`
		DeliveredMS int `yaml:"delivered_ms"`
		ReadMS      int `yaml:"read_ms"`
		AgentReadMS int `yaml:"agent_read_ms"`
	} `yaml:"lifecycle"`
	Backup struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		Keep    int    `yaml:"keep"`
	} `yaml:"backup"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Server.Address = "127.0.0.1"
	c.Server.Port = 8080
	c.Storage.DBPath = "./data"
	c.Logging.Level = "info"
	c.Logging.Format = "text"
	c.AI.Model = "gemini-2.0-flash"
	c.AI.TimeoutSeconds = 30
	c.Lifecycle.SentMS = 500
	c.Lifecycle.DeliveredMS = 1000
	c.Lifecycle.ReadMS = 2000
	c.Lifecycle.AgentReadMS = 300
	c.Backup.Cron = "0 2 * * *"
	c.Backup.Keep = 7
	c.RateLimit.RPS = 50
	c.RateLimit.Burst = 100
	return c
}

// Load reads path (if non-empty) over the defaults and then applies env
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LUMINA_ADDR"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("LUMINA_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("LUMINA_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("LUMINA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LUMINA_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("LUMINA_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
}

// Addr returns the host:port string for the HTTP listener.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// AITimeout returns the reply-call timeout as a duration.
func (c Config) AITimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// Flags holds command-line settings shared by the entry points.
type Flags struct {
	Addr   string
	DBPath string
	Config string
	Set    map[string]bool
}

// ParseFlags registers and parses the standard daemon flags.
func ParseFlags() Flags {
	addr := flag.String("addr", "", "listen address (host:port), overrides config")
	db := flag.String("db", "", "storage directory, overrides config")
	cfg := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addr, DBPath: *db, Config: *cfg, Set: set}
}

// Resolve merges parsed flags into cfg: explicit flags win.
func (f Flags) Resolve(cfg *Config) {
	if f.Set["addr"] && f.Addr != "" {
		host, port, ok := splitAddr(f.Addr)
		if ok {
			cfg.Server.Address = host
			cfg.Server.Port = port
		}
	}
	if f.Set["db"] && f.DBPath != "" {
		cfg.Storage.DBPath = f.DBPath
	}
}

func splitAddr(addr string) (string, int, bool) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			p, err := strconv.Atoi(addr[i+1:])
			if err != nil {
				return "", 0, false
			}
			host := addr[:i]
			if host == "" {
				host = "0.0.0.0"
			}
			return host, p, true
		}
	}
	return "", 0, false
}
