package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/logging"
)

// Environment variables read by loadConfig.
const (
	envAddr     = "OPSBOARD_ADDR"
	envSeed     = "OPSBOARD_SEED"
	envLogLevel = "OPSBOARD_LOG_LEVEL"
)

// Config represents the opsboard configuration file.
type Config struct {
	// Seed is a YAML seed file replacing the built-in data set.
	Seed string `yaml:"seed"`

	// Timezone names the location dates are rendered in. Empty means the
	// local zone.
	Timezone string `yaml:"timezone"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`

	Audit struct {
		Enabled       bool          `yaml:"enabled"`
		File          string        `yaml:"file"`
		BufferSize    int           `yaml:"buffer_size"`
		FlushInterval time.Duration `yaml:"flush_interval"`
	} `yaml:"audit"`

	Server struct {
		Addr            string        `yaml:"addr"`
		RateLimit       float64       `yaml:"rate_limit"`
		RateBurst       int           `yaml:"rate_burst"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Output is the snapshot destination. "-" is stdout.
	Output string `yaml:"output"`
}

// options holds the command line flags that override the configuration.
type options struct {
	configPath string
	seed       string
	addr       string
	logLevel   string
	logFile    string
	auditFile  string
	noAudit    bool
	output     string
	version    bool
}

func (o *options) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.configPath, "config", "c", "", "path to a YAML config file")
	flagSet.StringVar(&o.seed, "seed", "", "YAML seed file to load instead of the built-in data (or "+envSeed+")")
	flagSet.StringVar(&o.addr, "addr", "", "listen address for serve (or "+envAddr+")")
	flagSet.StringVar(&o.logLevel, "log-level", "", "debug, info, warn, error or silent (or "+envLogLevel+")")
	flagSet.StringVar(&o.logFile, "log-file", "", "write logs to this file instead of stderr")
	flagSet.StringVar(&o.auditFile, "audit-file", "", "audit trail location")
	flagSet.BoolVar(&o.noAudit, "no-audit", false, "disable the audit trail")
	flagSet.StringVarP(&o.output, "output", "o", "", "snapshot destination; .gz and .zst compress (default stdout)")
	flagSet.BoolVar(&o.version, "version", false, "show version")
}

func defaultConfig() Config {
	var cfg Config
	cfg.Log.Level = "info"
	cfg.Audit.Enabled = true
	cfg.Audit.File = filepath.Join(stateDir(), "audit.log")
	cfg.Audit.BufferSize = 100
	cfg.Audit.FlushInterval = 5 * time.Second
	cfg.Server.Addr = ":8080"
	cfg.Server.RateLimit = 5
	cfg.Server.RateBurst = 20
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Output = "-"
	return cfg
}

// stateDir is where opsboard keeps its audit trail and TUI log.
func stateDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".opsboard")
}

// loadConfig builds the configuration. Flags set on the command line win
// over the environment, the environment over the file and the file over
// the defaults.
func loadConfig(opts *options, flagSet *pflag.FlagSet, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	if opts.configPath != "" {
		if err := loadConfigFile(opts.configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := getenv(envSeed); v != "" {
		cfg.Seed = v
	}
	if v := getenv(envAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv(envLogLevel); v != "" {
		cfg.Log.Level = v
	}

	changed := func(name string) bool { return flagSet != nil && flagSet.Changed(name) }
	if changed("seed") {
		cfg.Seed = opts.seed
	}
	if changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if changed("audit-file") {
		cfg.Audit.File = opts.auditFile
	}
	if changed("no-audit") {
		cfg.Audit.Enabled = !opts.noAudit
	}
	if changed("output") {
		cfg.Output = opts.output
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.E(errors.KindConfig, "config.load", "read config", err)
	}

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return errors.E(errors.KindConfig, "config.load", "parse config "+path, err)
	}
	return nil
}

func (cfg Config) validate() error {
	const op = "config.validate"

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if _, err := cfg.location(); err != nil {
		return err
	}
	if cfg.Server.Addr == "" {
		return errors.Errorf(errors.KindConfig, op, "server address is empty")
	}
	if cfg.Server.RateLimit < 0 {
		return errors.Errorf(errors.KindConfig, op, "rate_limit must not be negative, got %g", cfg.Server.RateLimit)
	}
	if cfg.Audit.Enabled && cfg.Audit.File == "" {
		return errors.Errorf(errors.KindConfig, op, "audit is enabled but audit.file is empty")
	}
	return nil
}

func (cfg Config) location() (*time.Location, error) {
	if cfg.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.E(errors.KindConfig, "config.location", "unknown timezone "+cfg.Timezone, err)
	}
	return loc, nil
}
