package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
)

type Config struct {
	LectureDir     string        `toml:"lecture_dir"`
	DBPath         string        `toml:"db_path"`
	APIKey         string        `toml:"api_key"`
	BaseURL        string        `toml:"base_url"`
	Model          string        `toml:"model"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	ListenAddr     string        `toml:"listen_addr"`
	LogLevel       string        `toml:"log_level"`
	LogFile        string        `toml:"log_file"`
	Parser         parse.Options `toml:"parser"`

	// Path is the config file that was read, empty if none existed.
	Path string `toml:"-"`
}

// Load builds the configuration from defaults, the TOML file
// (~/.config/asc/config.toml or $ASC_CONFIG), a .env file in the working
// directory and finally the environment.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// .env never overrides variables that are already set
	_ = godotenv.Load()

	cfgPath := os.Getenv("ASC_CONFIG")
	if cfgPath == "" {
		cfgPath = filepath.Join(home, ".config", "asc", "config.toml")
	}
	return load(home, expandHome(cfgPath, home))
}

func load(home, cfgPath string) (*Config, error) {
	cfg := &Config{
		LectureDir:     "lecture",
		DBPath:         filepath.Join(home, ".config", "asc", "asc.db"),
		BaseURL:        "https://api.deepseek.com",
		Model:          "deepseek-chat",
		RequestTimeout: 120 * time.Second,
		ListenAddr:     ":8090",
		LogLevel:       "info",
		Parser:         parse.DefaultOptions(),
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
		cfg.Path = cfgPath
	}

	applyEnv(cfg)

	// expand ~ in paths
	cfg.LectureDir = expandHome(cfg.LectureDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.LogFile = expandHome(cfg.LogFile, home)

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.APIKey, "DEEPSEEK_API_KEY")
	set(&cfg.LectureDir, "ASC_LECTURE_DIR")
	set(&cfg.DBPath, "ASC_DB_PATH")
	set(&cfg.BaseURL, "ASC_BASE_URL")
	set(&cfg.Model, "ASC_MODEL")
	set(&cfg.ListenAddr, "ASC_LISTEN_ADDR")
	set(&cfg.LogLevel, "ASC_LOG_LEVEL")
	set(&cfg.LogFile, "ASC_LOG_FILE")

	if v := os.Getenv("ASC_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

// Validate checks the settings needed to talk to the completion API.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required: set DEEPSEEK_API_KEY or api_key in the config file")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
