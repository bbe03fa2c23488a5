package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/example/go-vibrato/internal/config"
	"github.com/example/go-vibrato/internal/server"
	"github.com/spf13/cobra"
)

const (
	groupAnalysis   = "analysis"
	groupDictionary = "dictionary"
	groupService    = "service"
)

var (
	cfgFile string
	// activeCfg is set by the root PersistentPreRunE; nil until then.
	activeCfg *config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "vibrato",
		Short: "MeCab-compatible Japanese tokenizer",
		Long: `vibrato segments Japanese text with a MeCab-style dictionary.

The dictionary is either a compiled binary (--dict-path, plain or zstd) or the
four text definitions lex.csv, matrix.def, char.def and unk.def, which are
compiled at startup when all four paths are set.

Settings are read from flags, VIBRATO_* environment variables (VIBRATO_DICT_PATH,
VIBRATO_TOKENIZER_IGNORE_SPACE, ...) and an optional vibrato.{yaml,toml,json} in
the working directory or named by --config.`,
		Example: `  vibrato compile --lex lex.csv --matrix matrix.def --char char.def --unk unk.def --out system.dic --zstd
  echo 本日は晴天なり | vibrato tokenize --dict-path system.dic --format wakati
  vibrato serve --dict-path system.dic --workers 4 --max-grouping-len 24`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = &loaded
			setupLogger(loaded.LogLevel)
			slog.Debug("configuration loaded",
				slog.String("command", cmd.Name()),
				slog.Any("dictionary", dictionaryFiles(loaded)),
				slog.Bool("ignore_space", loaded.Tokenizer.IgnoreSpace),
				slog.Uint64("max_grouping_len", uint64(loaded.Tokenizer.MaxGroupingLen)),
			)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddGroup(
		&cobra.Group{ID: groupAnalysis, Title: "Tokenization:"},
		&cobra.Group{ID: groupDictionary, Title: "Dictionary:"},
		&cobra.Group{ID: groupService, Title: "HTTP service:"},
	)
	for _, sub := range []struct {
		group string
		cmd   *cobra.Command
	}{
		{groupAnalysis, newTokenizeCmd()},
		{groupAnalysis, newBenchCmd()},
		{groupDictionary, newCompileCmd()},
		{groupDictionary, newDoctorCmd()},
		{groupService, newServeCmd()},
		{groupService, newHealthCmd()},
	} {
		sub.cmd.GroupID = sub.group
		cmd.AddCommand(sub.cmd)
	}

	return cmd
}

// setupLogger installs a JSON logger on stderr so tokenize output on stdout
// stays machine-readable.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h).With(slog.String("app", "vibrato")))
}

var errConfigNotLoaded = errors.New("configuration not loaded")

// requireConfig returns the config loaded for the running command.
func requireConfig() (config.Config, error) {
	if activeCfg == nil {
		return config.Config{}, errConfigNotLoaded
	}
	return *activeCfg, nil
}
