package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RoomConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	StaticPath      string        `mapstructure:"static_path"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	Secret          string        `mapstructure:"secret"`
	LogLevel        string        `mapstructure:"log_level"`
	OriginMode      string        `mapstructure:"origin_mode"`
	SlowPolicy      string        `mapstructure:"slow_policy"`
	HistoryCapacity int           `mapstructure:"history_capacity"`
	HistoryReplay   int           `mapstructure:"history_replay"`
	BannedWords     []string      `mapstructure:"banned_words"`
	MaskChar        string        `mapstructure:"mask_char"`
	PublicRooms     []RoomConfig  `mapstructure:"public_rooms"`
	PasswordCost    int           `mapstructure:"password_cost"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	MaxMessageLen   int           `mapstructure:"max_message_len"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateInterval    time.Duration `mapstructure:"rate_interval"`
	UnifyJoinErrors bool          `mapstructure:"unify_join_errors"`

	// Private rooms nobody joined are reaped after PrivateRoomTTL.
	PrivateRoomTTL     time.Duration `mapstructure:"private_room_ttl"`
	JanitorInterval    time.Duration `mapstructure:"janitor_interval"`
	CreateRoomLimit    int           `mapstructure:"create_room_limit"`
	CreateRoomInterval time.Duration `mapstructure:"create_room_interval"`

	// File is the config file actually read, empty when running on defaults.
	File string `mapstructure:"-"`
}

// MaskRune is the first rune of MaskChar, '*' when unset.
func (c *Config) MaskRune() rune {
	r, _ := utf8.DecodeRuneInString(c.MaskChar)
	if r == utf8.RuneError {
		return '*'
	}
	return r
}

var defaultRooms = []map[string]string{
	{"id": "general", "name": "Général"},
	{"id": "musique", "name": "Musique"},
	{"id": "jeux", "name": "Jeux Vidéo"},
	{"id": "cinema", "name": "Cinéma & Séries"},
	{"id": "tech", "name": "Technologie"},
	{"id": "detente", "name": "Détente"},
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DIALNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "dialnet-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("origin_mode", "ip")
	v.SetDefault("slow_policy", "kick")
	v.SetDefault("history_capacity", 100)
	v.SetDefault("history_replay", 50)
	v.SetDefault("banned_words", []string{"spam", "hack", "admin"})
	v.SetDefault("mask_char", "*")
	v.SetDefault("public_rooms", defaultRooms)
	v.SetDefault("password_cost", 10)
	v.SetDefault("send_buffer", 64)
	v.SetDefault("max_message_len", 500)
	v.SetDefault("rate_limit", 5)
	v.SetDefault("rate_interval", "1s")
	v.SetDefault("unify_join_errors", false)
	v.SetDefault("private_room_ttl", "10m")
	v.SetDefault("janitor_interval", "1m")
	v.SetDefault("create_room_limit", 5)
	v.SetDefault("create_room_interval", "1m")
	return v
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default) on top of the defaults.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load with an explicit file. A missing file is not an error.
func LoadFile(fileName string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(fileName)

	file := ""
	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		file = v.ConfigFileUsed()
		log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.File = file
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.OriginMode {
	case "ip", "client", "none":
	default:
		return fmt.Errorf("invalid origin_mode %q", c.OriginMode)
	}
	switch c.SlowPolicy {
	case "kick", "tolerate":
	default:
		return fmt.Errorf("invalid slow_policy %q", c.SlowPolicy)
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history_capacity must be positive, got %d", c.HistoryCapacity)
	}
	if c.HistoryReplay <= 0 || c.HistoryReplay > c.HistoryCapacity {
		c.HistoryReplay = c.HistoryCapacity
	}
	if c.PrivateRoomTTL <= 0 || c.JanitorInterval <= 0 {
		return fmt.Errorf("private_room_ttl and janitor_interval must be positive")
	}
	if c.CreateRoomLimit <= 0 || c.CreateRoomInterval <= 0 {
		return fmt.Errorf("create_room_limit and create_room_interval must be positive")
	}
	if len(c.PublicRooms) == 0 {
		return fmt.Errorf("at least one public room is required")
	}
	for _, r := range c.PublicRooms {
		if r.ID == "" {
			return fmt.Errorf("public room without id")
		}
	}
	return nil
}

// Watch re-reads cfg.File whenever it changes on disk and hands the new
// config to onChange. Invalid edits are logged and skipped.
func Watch(cfg *Config, onChange func(*Config)) {
	if cfg.File == "" {
		return
	}
	v := newViper()
	v.SetConfigFile(cfg.File)
	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Str("module", "config").Msg("watch: read config")
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload rejected")
			return
		}
		next.File = cfg.File
		log.Info().Str("module", "config").Str("file", e.Name).Msg("config reloaded")
		onChange(next)
	})
	v.WatchConfig()
}
