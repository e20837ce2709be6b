package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/pdflib/internal/catalog"
	"github.com/yuanying/pdflib/internal/config"
	"github.com/yuanying/pdflib/internal/render"
)

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// cliOptions is what every subcommand needs from the root command.
type cliOptions struct {
	Config *config.Config
	Logger *slog.Logger
}

// app carries the options resolved by the root command to its subcommands.
type app struct {
	opts *cliOptions
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "pdflib",
		Short: "Manage and read a personal PDF library",
		Long: `pdflib keeps a catalog of PDF files sorted into categories, remembers
where you stopped reading each book, generates cover thumbnails and renders
pages to PNG images.

The catalog lives in a books.json file inside the data directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			a.opts = opts
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, toml or json)")
	flags.String("data-dir", "", "Library data directory (default: platform data directory)")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug|info|warn|error)")
	flags.String("log-format", config.DefaultLogFormat, "Log format (text|json)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newCategoryCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newMoveCmd(a),
		newFavCmd(a),
		newRemoveCmd(a),
		newRelinkCmd(a),
		newProgressCmd(a),
		newRenderCmd(a),
		newThumbnailCmd(a),
		newReadCmd(a),
		newMigrateCmd(a),
	)
	return cmd
}

func readCLIOptions(cmd *cobra.Command) (*cliOptions, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if _, ok := validLogLevels[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("invalid --log-level %q: must be one of debug, info, warn, error", cfg.LogLevel)
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid --log-format %q: must be text or json", cfg.LogFormat)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	return &cliOptions{
		Config: cfg,
		Logger: buildLogger(cmd.ErrOrStderr(), level, cfg.LogFormat),
	}, nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: validLogLevels[strings.ToLower(level)]}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func (a *app) newEngine() *render.Engine {
	return render.NewEngine(render.Options{
		ThumbnailWidth: a.opts.Config.ThumbnailWidth,
		Logger:         a.opts.Logger,
	})
}

// openStore opens the catalog with a render engine as its inspector.
func (a *app) openStore() (*catalog.Store, error) {
	store, err := catalog.New(catalog.Options{
		Dir:         a.opts.Config.DataDir,
		Inspector:   a.newEngine(),
		RecentLimit: a.opts.Config.RecentLimit,
		Logger:      a.opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return store, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
