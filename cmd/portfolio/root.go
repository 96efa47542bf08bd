package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"folio.dev/internal/config"
	"folio.dev/internal/imageloader"
	"folio.dev/internal/logging"
	"folio.dev/internal/metrics"
	"folio.dev/internal/services"
	"folio.dev/internal/theme"
	"folio.dev/internal/validation"
)

// app is the state shared by every command
type app struct {
	configFile string
	verbose    bool

	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Serve and maintain a personal portfolio site",
		Long: `portfolio renders a personal portfolio site from local JSON or YAML
documents: projects, biography, experience, education and publications.

Every record is validated on load. Malformed projects are dropped, fields
that can be corrected are defaulted, and unsafe links are removed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is ./portfolio.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "json", "Log format (json or console)")
	pf.String("data-dir", "data", "Directory holding the content documents")

	cmd.AddCommand(
		newServeCmd(a),
		newValidateCmd(a),
		newProbeCmd(a),
		newGenerateCmd(a),
		newThemeCmd(a),
	)
	return cmd
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"data-dir":   "data.dir",
	"addr":       "server.addr",
	"watch":      "data.watch",
	"probe":      "images.probe",
	"state-dir":  "state.dir",
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()

	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	a.v, a.cfg, a.logger = v, cfg, logger
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("Using config file", zap.String("path", used))
	}
	return nil
}

func (a *app) newContent(m *metrics.Metrics) *services.ContentService {
	return services.NewContentService(services.ContentOptions{
		ProjectsPath:  a.cfg.ProjectsPath(),
		ProfilePath:   a.cfg.ProfilePath(),
		HeroOverrides: a.cfg.HeroOverrides(),
		Validator:     validation.New(validation.WithLogger(a.logger), validation.WithMetrics(m)),
		Logger:        a.logger,
		Metrics:       m,
	})
}

func (a *app) newImages(m *metrics.Metrics) *services.ImageService {
	fetcher := &imageloader.RouteFetcher{
		Remote: imageloader.NewHTTPFetcher(a.cfg.Images.Timeout),
		Local:  &imageloader.DirFetcher{Root: a.cfg.Static.Dir, BasePath: a.cfg.Server.BasePath},
	}
	return services.NewImageService(services.ImageOptions{
		Fetcher:         fetcher,
		MaxRetries:      a.cfg.Images.MaxRetries,
		Concurrency:     a.cfg.Images.Concurrency,
		HeroFallback:    a.cfg.Images.Fallback,
		ProjectFallback: a.cfg.Images.ProjectFallback,
		Logger:          a.logger,
		Metrics:         m,
	})
}

func (a *app) newTheme() *theme.Manager {
	return theme.NewManager(theme.NewFileStore(a.cfg.PreferencesPath()), a.logger)
}
