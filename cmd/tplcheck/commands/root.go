package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-tplcheck"
	"github.com/goliatone/go-tplcheck/internal/config"
	"github.com/goliatone/go-tplcheck/internal/logging"
	"github.com/goliatone/go-tplcheck/pkg/filters"
	"github.com/goliatone/go-tplcheck/pkg/walker"
)

// flag names
const (
	flagRoot         = "root"
	flagTitlePolicy  = "title-policy"
	flagRenderPolicy = "render-policy"
	flagEnvFile      = "env-file"
	flagLogLevel     = "log-level"
	flagLogFormat    = "log-format"
	flagLocale       = "locale"
	flagCamoURL      = "camo-url"
	flagCamoKey      = "camo-key"
)

// ErrChecksFailed is returned after failures have been reported.
var ErrChecksFailed = errors.New("template checks failed")

// runtime is the state shared by subcommands once flags are resolved.
type runtime struct {
	cfg     *config.Config
	logger  *logrus.Logger
	fsys    fs.FS
	options []tplcheck.Option
}

// NewRootCmd builds the tplcheck command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:   "tplcheck",
		Short: "Check a template tree for missing titles and compile errors",
		Long: `tplcheck loads every template under a template root with the production
engine configuration and reports page templates without a title block and
templates that fail to compile.

Settings are read from flags, then TPLCHECK_* environment variables, then an
optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagRoot, "", "Template root directory (env: TPLCHECK_TEMPLATES_DIR, default: shipped templates)")
	flags.String(flagTitlePolicy, "", "YAML exclusion policy for the title check (env: TPLCHECK_TITLE_POLICY)")
	flags.String(flagRenderPolicy, "", "YAML exclusion policy for the render check (env: TPLCHECK_RENDER_POLICY)")
	flags.String(flagEnvFile, "", "Dotenv file to load before reading the environment")
	flags.String(flagLogLevel, "", "Log level (env: TPLCHECK_LOG_LEVEL)")
	flags.String(flagLogFormat, "", "Log format, text or json (env: TPLCHECK_LOG_FORMAT)")
	flags.String(flagLocale, "", "Locale for date and number filters (env: TPLCHECK_LOCALE)")
	flags.String(flagCamoURL, "", "Image proxy base URL for camoify (env: TPLCHECK_CAMO_URL)")
	flags.String(flagCamoKey, "", "Image proxy HMAC key for camoify (env: TPLCHECK_CAMO_KEY)")

	cmd.AddCommand(newTitlesCmd(rt))
	cmd.AddCommand(newRenderCmd(rt))
	cmd.AddCommand(newAllCmd(rt))
	cmd.AddCommand(newPreviewCmd(rt))

	return cmd
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	var envFiles []string
	if file, _ := cmd.Flags().GetString(flagEnvFile); file != "" {
		envFiles = append(envFiles, file)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}

	// flags win over the environment
	override := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	override(flagRoot, &cfg.TemplatesDir)
	override(flagTitlePolicy, &cfg.TitlePolicy)
	override(flagRenderPolicy, &cfg.RenderPolicy)
	override(flagLogLevel, &cfg.Log.Level)
	override(flagLogFormat, &cfg.Log.Format)
	override(flagLocale, &cfg.Locale)
	override(flagCamoURL, &cfg.Camo.URL)
	override(flagCamoKey, &cfg.Camo.Key)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	fsys, err := tplcheck.Root(cfg.TemplatesDir)
	if err != nil {
		return err
	}

	options := []tplcheck.Option{
		tplcheck.WithLogger(logger),
		tplcheck.WithFilters(filters.Default(
			filters.WithLocale(cfg.LocaleTag()),
			filters.WithCamo(cfg.Camo.URL, cfg.Camo.Key),
		)),
	}
	if cfg.TitlePolicy != "" {
		p, err := loadPolicy(cfg.TitlePolicy)
		if err != nil {
			return err
		}
		options = append(options, tplcheck.WithTitlePolicy(p))
	}
	if cfg.RenderPolicy != "" {
		p, err := loadPolicy(cfg.RenderPolicy)
		if err != nil {
			return err
		}
		options = append(options, tplcheck.WithRenderPolicy(p))
	}

	rt.cfg = cfg
	rt.logger = logger
	rt.fsys = fsys
	rt.options = options

	logger.WithFields(logrus.Fields{
		"root":   displayRoot(cfg.TemplatesDir),
		"locale": cfg.LocaleTag().String(),
	}).Debug("configuration resolved")
	return nil
}

func loadPolicy(path string) (walker.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return walker.Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}
	return walker.ParsePolicy(data)
}

func displayRoot(dir string) string {
	if dir == "" {
		return "(shipped templates)"
	}
	return dir
}
