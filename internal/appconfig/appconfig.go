// Package appconfig defines the CLI surface: flags shared by the run,
// replay, and verify-state subcommands, plus an optional YAML config
// file that supplies defaults for any flag left unset on the command
// line. Explicit flags always win over the file.
package appconfig

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Config holds one subcommand invocation's resolved settings.
type Config struct {
	EventsPath string `yaml:"events"`
	StatePath  string `yaml:"state"`
	AuditPath  string `yaml:"audit"`
	VerifyPath string `yaml:"verify"`
	MetricsOut string `yaml:"metrics"`
	LogLevel   string `yaml:"log_level"`
}

// fileDefaults is the subset of Config a --config YAML file may supply.
// Fields are pointers so "absent from the file" is distinguishable from
// "present and empty".
type fileDefaults struct {
	EventsPath *string `yaml:"events"`
	StatePath  *string `yaml:"state"`
	AuditPath  *string `yaml:"audit"`
	VerifyPath *string `yaml:"verify"`
	MetricsOut *string `yaml:"metrics"`
	LogLevel   *string `yaml:"log_level"`
}

// LoadFile parses a --config YAML file. A path that cannot be read is an
// error; callers only invoke LoadFile when the flag was actually set.
func LoadFile(path string) (fileDefaults, error) {
	var fd fileDefaults
	raw, err := os.ReadFile(path)
	if err != nil {
		return fd, fmt.Errorf("appconfig: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return fd, fmt.Errorf("appconfig: parse config %s: %w", path, err)
	}
	return fd, nil
}

// sharedFlags are accepted by every subcommand that touches events/state.
var sharedFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Usage: "optional YAML file supplying defaults for any flag left unset"},
	&cli.StringFlag{Name: "events", Usage: "path to the newline-delimited JSON events log"},
	&cli.StringFlag{Name: "state", Usage: "path to rules_state.json"},
	&cli.StringFlag{Name: "audit", Usage: "path to write the canonical audit_log.jsonl"},
	&cli.StringFlag{Name: "metrics", Usage: "optional path to write a Prometheus text-format metrics snapshot"},
}

// RunFlags returns the flag set for the run subcommand.
func RunFlags() []cli.Flag { return sharedFlags }

// ReplayFlags returns the flag set for the replay subcommand: the shared
// flags plus --verify, the expected-hash file replay fails closed against.
func ReplayFlags() []cli.Flag {
	return append(append([]cli.Flag{}, sharedFlags...),
		&cli.StringFlag{Name: "verify", Usage: "path to a file containing the expected state_hash"},
	)
}

// VerifyStateFlags returns the flag set for the supplemented verify-state
// subcommand: just --state, to recheck an existing file's embedded hash.
func VerifyStateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "optional YAML file supplying defaults for any flag left unset"},
		&cli.StringFlag{Name: "state", Usage: "path to rules_state.json"},
	}
}

// FromContext resolves a Config from a cli.Context: explicit flags first,
// then --config file values for anything left empty.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		EventsPath: c.String("events"),
		StatePath:  c.String("state"),
		AuditPath:  c.String("audit"),
		VerifyPath: c.String("verify"),
		MetricsOut: c.String("metrics"),
	}

	if path := c.String("config"); path != "" {
		fd, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		fillString(&cfg.EventsPath, fd.EventsPath)
		fillString(&cfg.StatePath, fd.StatePath)
		fillString(&cfg.AuditPath, fd.AuditPath)
		fillString(&cfg.VerifyPath, fd.VerifyPath)
		fillString(&cfg.MetricsOut, fd.MetricsOut)
		fillString(&cfg.LogLevel, fd.LogLevel)
	}

	return cfg, nil
}

// fillString assigns *src into *dst only when dst is still empty and src
// was actually present in the config file.
func fillString(dst *string, src *string) {
	if *dst == "" && src != nil {
		*dst = *src
	}
}
