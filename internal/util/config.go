package util

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Configuration holds the settings an optional mscript.toml file (or
// the cobra CLI flags in cmd/mscript) can supply, per SPEC_FULL.md's
// ambient configuration section.
type Configuration struct {
	Version string `toml:"-"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
	LogColor bool   `toml:"log_color"`

	// TimeLimitMS bounds each RunUntilDone slice the service layer runs
	// (file runner and REPL alike), in milliseconds; 0 selects the
	// service's 60-second default.
	TimeLimitMS int64 `toml:"time_limit_ms"`

	// RandomSeed reseeds the machine's private random stream when
	// nonzero, for reproducible "shuffle"/"rnd" output in tests and
	// demos.
	RandomSeed int64 `toml:"random_seed"`
}

// DefaultConfiguration returns the settings used when no mscript.toml
// is present and no flags override them.
func DefaultConfiguration() Configuration {
	return Configuration{
		LogLevel: "none",
		LogColor: true,
	}
}

// LoadConfig reads path (an mscript.toml) over DefaultConfiguration's
// values. A missing file is not an error — the caller runs on
// compiled-in defaults, per spec.md §6.
func LoadConfig(path string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}
