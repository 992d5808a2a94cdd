package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// Prefix is the environment variable prefix, e.g. TPLCHECK_TEMPLATES_DIR.
const Prefix = "TPLCHECK"

// Config is the process configuration of the tplcheck command.
type Config struct {
	// TemplatesDir is the template root. Empty selects the shipped templates.
	TemplatesDir string     `envconfig:"TEMPLATES_DIR"`
	TitlePolicy  string     `envconfig:"TITLE_POLICY"`
	RenderPolicy string     `envconfig:"RENDER_POLICY"`
	Locale       string     `envconfig:"LOCALE" default:"en"`
	Log          LogConfig  `envconfig:"LOG"`
	Camo         CamoConfig `envconfig:"CAMO"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
}

// CamoConfig configures the image proxy used by the camoify filter.
type CamoConfig struct {
	URL string `envconfig:"URL" default:"https://camo.pypi.org/"`
	Key string `envconfig:"KEY"`
}

// Load reads the given dotenv files, then the environment. With no files it
// reads ./.env when present. Variables already set in the environment win
// over dotenv values.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotenv(envFiles); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: load from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("config: load dotenv: %w", err)
	}
	return nil
}

// Validate checks the values that are parsed later.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log format %q: want text or json", c.Log.Format)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("config: locale %q: %w", c.Locale, err)
	}
	return nil
}

// LocaleTag returns the parsed locale, English when it does not parse.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
