package sim

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ProcessOptions are the knobs shared by every entry point. Environment
// variables set the defaults; flags override them.
type ProcessOptions struct {
	LogLevel  string `env:"GRAPPLEHOOK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"GRAPPLEHOOK_LOG_FORMAT" envDefault:"console"`
	Level     string `env:"GRAPPLEHOOK_LEVEL" envDefault:"arena.yaml"`
	Tuning    string `env:"GRAPPLEHOOK_TUNING" envDefault:"grapple.yaml"`
	PrefabDir string `env:"GRAPPLEHOOK_PREFAB_DIR" envDefault:"prefabs"`
	HotReload bool   `env:"GRAPPLEHOOK_HOT_RELOAD" envDefault:"true"`
}

// Bind loads env defaults into o and registers the matching flags on fs.
func (o *ProcessOptions) Bind(fs *flag.FlagSet) error {
	if err := env.Parse(o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&o.LogFormat, "log-format", o.LogFormat, "log format: console, text, json")
	fs.StringVar(&o.Level, "level", o.Level, "level spec in the prefab dir")
	fs.StringVar(&o.Tuning, "tuning", o.Tuning, "grapple tuning spec in the prefab dir")
	fs.StringVar(&o.PrefabDir, "prefabs", o.PrefabDir, "on-disk prefab override dir; empty uses only embedded prefabs")
	fs.BoolVar(&o.HotReload, "hot-reload", o.HotReload, "watch the prefab dir and reload tuning on change")
	return nil
}

// ParseOptions binds a fresh flag set, lets extra register command-specific
// flags, then parses args.
func ParseOptions(name string, args []string, extra func(fs *flag.FlagSet)) (ProcessOptions, error) {
	var o ProcessOptions
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if err := o.Bind(fs); err != nil {
		return o, err
	}
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}
