package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GLENGINE_LOG_LEVEL.
const EnvPrefix = "GLENGINE"

// Settings holds per-invocation runtime settings. They come from command
// flags, GLENGINE_* environment variables and an optional .env file, in
// that order of precedence.
type Settings struct {
	ConfigPath   string
	InputDir     string
	OutputDir    string
	AsOf         time.Time // zero = latest transaction date
	PeriodStart  time.Time // zero = fiscal year start
	OnInvalidRow string    // empty = use glengine.yaml
	SQLitePath   string
	JournalPath  string // Journal table to replay; validate only
	Commit       bool
	LogLevel     string
	LogFormat    string
	LogOutput    string
}

// LoadSettings resolves settings for the flags defined on fs.
func LoadSettings(fs *pflag.FlagSet) (*Settings, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("config", "glengine.yaml")
	v.SetDefault("input", "input")
	v.SetDefault("output", "output")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
	v.SetDefault("log-output", "stderr")

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	s := &Settings{
		ConfigPath:   v.GetString("config"),
		InputDir:     v.GetString("input"),
		OutputDir:    v.GetString("output"),
		OnInvalidRow: v.GetString("on-invalid-row"),
		SQLitePath:   v.GetString("sqlite"),
		JournalPath:  v.GetString("journal"),
		Commit:       v.GetBool("commit"),
		LogLevel:     v.GetString("log-level"),
		LogFormat:    v.GetString("log-format"),
		LogOutput:    v.GetString("log-output"),
	}

	var err error
	if s.AsOf, err = parseOptionalDate("as-of", v.GetString("as-of")); err != nil {
		return nil, err
	}
	if s.PeriodStart, err = parseOptionalDate("period-start", v.GetString("period-start")); err != nil {
		return nil, err
	}
	switch s.OnInvalidRow {
	case "", "abort", "skip":
	default:
		return nil, fmt.Errorf("--on-invalid-row must be abort or skip, got %q", s.OnInvalidRow)
	}
	return s, nil
}

func parseOptionalDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --%s %q: %w", name, value, err)
	}
	return t, nil
}
