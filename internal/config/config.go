package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Server    ServerConfig    `mapstructure:"server"`
	LogLevel  string          `mapstructure:"log_level"`
}

// PathsConfig names the dictionary inputs. When all four text sources are
// set they are compiled at startup and DictPath is ignored.
type PathsConfig struct {
	DictPath   string `mapstructure:"dict_path"`
	LexPath    string `mapstructure:"lex_path"`
	MatrixPath string `mapstructure:"matrix_path"`
	CharPath   string `mapstructure:"char_path"`
	UnkPath    string `mapstructure:"unk_path"`
}

// HasTextSources reports whether all four text definitions are configured.
func (p PathsConfig) HasTextSources() bool {
	return p.LexPath != "" && p.MatrixPath != "" && p.CharPath != "" && p.UnkPath != ""
}

type TokenizerConfig struct {
	IgnoreSpace      bool `mapstructure:"ignore_space"`
	MaxGroupingLen   uint `mapstructure:"max_grouping_len"`
	SurfaceCacheSize int  `mapstructure:"surface_cache_size"`
	FeatureCacheSize int  `mapstructure:"feature_cache_size"`
}

// ServerConfig timeouts are in seconds.
type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			DictPath: "dict/system.dic",
		},
		Tokenizer: TokenizerConfig{
			IgnoreSpace:      false,
			MaxGroupingLen:   0,
			SurfaceCacheSize: 0,
			FeatureCacheSize: 0,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			MaxTextBytes:    65536,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
		},
		LogLevel: "info",
	}
}

// flagKeys maps each command-line flag to the config key it overrides.
var flagKeys = map[string]string{
	"dict-path":          "paths.dict_path",
	"lex-path":           "paths.lex_path",
	"matrix-path":        "paths.matrix_path",
	"char-path":          "paths.char_path",
	"unk-path":           "paths.unk_path",
	"ignore-space":       "tokenizer.ignore_space",
	"max-grouping-len":   "tokenizer.max_grouping_len",
	"surface-cache-size": "tokenizer.surface_cache_size",
	"feature-cache-size": "tokenizer.feature_cache_size",
	"listen-addr":        "server.listen_addr",
	"workers":            "server.workers",
	"max-text-bytes":     "server.max_text_bytes",
	"request-timeout":    "server.request_timeout",
	"shutdown-timeout":   "server.shutdown_timeout",
	"log-level":          "log_level",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("dict-path", defaults.Paths.DictPath, "Path to a compiled dictionary (plain or zstd)")
	fs.String("lex-path", defaults.Paths.LexPath, "Path to lex.csv")
	fs.String("matrix-path", defaults.Paths.MatrixPath, "Path to matrix.def")
	fs.String("char-path", defaults.Paths.CharPath, "Path to char.def")
	fs.String("unk-path", defaults.Paths.UnkPath, "Path to unk.def")
	fs.Bool("ignore-space", defaults.Tokenizer.IgnoreSpace, "Drop SPACE characters from the output")
	fs.Uint("max-grouping-len", defaults.Tokenizer.MaxGroupingLen, "Longest grouped unknown word (0 = unlimited, 24 = MeCab)")
	fs.Int("surface-cache-size", defaults.Tokenizer.SurfaceCacheSize, "Surface cache capacity (0 = unbounded)")
	fs.Int("feature-cache-size", defaults.Tokenizer.FeatureCacheSize, "Feature cache capacity (0 = unbounded)")
	fs.String("listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Number of tokenization sessions in the server pool")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("VIBRATO")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("paths.dict_path", "VIBRATO_DICT_PATH", "VIBRATO_PATHS_DICT_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind dict env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("vibrato")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be >= 1, got %d", c.Server.Workers)
	}
	if c.Server.MaxTextBytes < 1 {
		return fmt.Errorf("server.max_text_bytes must be >= 1, got %d", c.Server.MaxTextBytes)
	}
	if c.Server.RequestTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.dict_path", c.Paths.DictPath)
	v.SetDefault("paths.lex_path", c.Paths.LexPath)
	v.SetDefault("paths.matrix_path", c.Paths.MatrixPath)
	v.SetDefault("paths.char_path", c.Paths.CharPath)
	v.SetDefault("paths.unk_path", c.Paths.UnkPath)
	v.SetDefault("tokenizer.ignore_space", c.Tokenizer.IgnoreSpace)
	v.SetDefault("tokenizer.max_grouping_len", c.Tokenizer.MaxGroupingLen)
	v.SetDefault("tokenizer.surface_cache_size", c.Tokenizer.SurfaceCacheSize)
	v.SetDefault("tokenizer.feature_cache_size", c.Tokenizer.FeatureCacheSize)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds the registered flags that are present in fs. Subcommands
// may carry only part of the set.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
