// Package config loads loom settings.
//
// Values are layered: schema defaults, then an optional CUE file, then LOOM_*
// environment variables. The CLI applies its flags last and calls Validate.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOOM_"

// Config holds every setting.
type Config struct {
	Title             string `json:"title" env:"TITLE"`
	FrameRate         int    `json:"frame_rate" env:"FRAME_RATE"`
	LogLevel          string `json:"log_level" env:"LOG_LEVEL"`
	LogFormat         string `json:"log_format" env:"LOG_FORMAT"`
	TraceDB           string `json:"trace_db" env:"TRACE_DB"`
	AltScreen         bool   `json:"alt_screen" env:"ALT_SCREEN"`
	Mouse             bool   `json:"mouse" env:"MOUSE"`
	ShutdownTimeoutMS int    `json:"shutdown_timeout_ms" env:"SHUTDOWN_TIMEOUT_MS"`
}

// ShutdownTimeout returns the shutdown bound as a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Level maps LogLevel to a slog level. Unknown names map to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Loader resolves configuration. The zero value reads the process
// environment.
type Loader struct {
	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Load resolves configuration with the process environment.
func Load(path string) (Config, error) {
	return Loader{}.Load(path)
}

// Defaults returns the schema defaults.
func Defaults() (Config, error) {
	return Loader{Environment: map[string]string{}}.Load("")
}

// Load reads the CUE file at path, if any, over the schema defaults and then
// applies environment overrides.
func (l Loader) Load(path string) (Config, error) {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return Config{}, err
	}

	v := def
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		file := ctx.CompileBytes(data, cue.Filename(path))
		if err := file.Err(); err != nil {
			return Config{}, fmt.Errorf("compile %s: %w", path, err)
		}
		v = def.Unify(file)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: l.Environment}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	// Environment values are checked against the same constraints.
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks c against the schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return err
	}
	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("lookup schema: %w", err)
	}
	return def, nil
}
