package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode             string        `mapstructure:"mode"`
	Port             int           `mapstructure:"port"`
	Secret           string        `mapstructure:"secret"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	ReadLimit        int64         `mapstructure:"read_limit"`
	PingPeriod       time.Duration `mapstructure:"ping_period"`
	PongWait         time.Duration `mapstructure:"pong_wait"`
	WriteWait        time.Duration `mapstructure:"write_wait"`
	SendQueue        int           `mapstructure:"send_queue"`
	SlowClientPolicy string        `mapstructure:"slow_client_policy"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	Log              Log           `mapstructure:"log"`
	Calls            Calls         `mapstructure:"calls"`
	RateLimit        RateLimit     `mapstructure:"rate_limit"`
	ICEServers       []ICEServer   `mapstructure:"ice_servers"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type Calls struct {
	Strict      bool          `mapstructure:"strict"`
	RingTimeout time.Duration `mapstructure:"ring_timeout"`
}

type RateLimit struct {
	Events   int           `mapstructure:"events"`
	Interval time.Duration `mapstructure:"interval"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls" json:"urls"`
	Username   string   `mapstructure:"username" json:"username,omitempty"`
	Credential string   `mapstructure:"credential" json:"credential,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 4007)
	v.SetDefault("secret", "change-me")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_queue", 64)
	v.SetDefault("slow_client_policy", "kick")
	v.SetDefault("shutdown_timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("calls.strict", true)
	v.SetDefault("calls.ring_timeout", "45s")

	v.SetDefault("rate_limit.events", 60)
	v.SetDefault("rate_limit.interval", "10s")

	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

// Flags returns the command line flags understood by Loader.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file (default config/config.$CONFIG_ENV.yaml)")
	fs.Int("port", 0, "listen port")
	fs.String("mode", "", "gin mode: debug or release")
	fs.String("log-level", "", "log level")
	return fs
}

// Loader reads configuration from defaults, file, RELAY_* env vars and
// flags, in increasing precedence.
type Loader struct {
	v    *viper.Viper
	file string
	// explicit is set when the file came from --config; it must exist.
	explicit bool
	found    bool
}

func NewLoader(fs *pflag.FlagSet) (*Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileName := ""
	if fs != nil {
		for key, flag := range map[string]string{"port": "port", "mode": "mode", "log.level": "log-level"} {
			if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
		fileName, _ = fs.GetString("config")
	}
	explicit := fileName != ""
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)
	return &Loader{v: v, file: fileName, explicit: explicit}, nil
}

// Load reads the config file if present. A missing default file falls back
// to defaults; a missing --config file is an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.explicit || (!errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config %s: %w", l.file, err)
		}
		log.Warn().Str("module", "config").Str("file", l.file).Msg("config file not found, using defaults")
	} else {
		l.found = true
		log.Info().Str("module", "config").Str("file", l.file).Msg("loaded config")
	}
	return l.decode()
}

// Watch calls onChange with the re-read config whenever the file changes.
// It does nothing when Load found no file.
func (l *Loader) Watch(onChange func(*Config)) {
	if !l.found {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload failed")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Str("op", e.Op.String()).Msg("config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SendQueue <= 0 {
		return fmt.Errorf("send_queue must be positive, got %d", c.SendQueue)
	}
	if c.PingPeriod >= c.PongWait {
		return fmt.Errorf("ping_period %s must be shorter than pong_wait %s", c.PingPeriod, c.PongWait)
	}
	if c.Calls.RingTimeout < 0 {
		return fmt.Errorf("calls.ring_timeout must not be negative")
	}
	return nil
}

// Load is a shortcut for NewLoader(nil).Load().
func Load() (*Config, error) {
	l, err := NewLoader(nil)
	if err != nil {
		return nil, err
	}
	return l.Load()
}
