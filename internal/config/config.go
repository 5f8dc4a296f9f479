// Package config loads verifier options from a lien.toml or YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"lien/internal/verify"
)

// Options are the tunable knobs of a verification run, read from the
// [verifier] section of a config file.
type Options struct {
	// MaxDiagnostics caps emitted diagnostics; 0 means unlimited.
	MaxDiagnostics int `toml:"max_diagnostics" yaml:"max_diagnostics"`
	// JoinPolicy is "move-wins" (the default) or "error".
	JoinPolicy string `toml:"join_policy" yaml:"join_policy"`
}

// Default returns the options used when no config file is present.
func Default() Options {
	return Options{JoinPolicy: "move-wins"}
}

type configFile struct {
	Verifier Options `toml:"verifier" yaml:"verifier"`
}

// Load reads options from path, dispatching on the extension: .toml, .yaml
// or .yml. A file without a verifier section yields the defaults.
func Load(path string) (Options, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	}
	return Options{}, fmt.Errorf("%s: unsupported config format", path)
}

func loadTOML(path string) (Options, error) {
	cfg := configFile{Verifier: Default()}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Options{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("verifier") {
		return Default(), nil
	}
	if err := cfg.Verifier.Validate(); err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.Verifier, nil
}

func loadYAML(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg := configFile{Verifier: Default()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Options{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	if cfg.Verifier.JoinPolicy == "" {
		cfg.Verifier.JoinPolicy = Default().JoinPolicy
	}
	if err := cfg.Verifier.Validate(); err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.Verifier, nil
}

// Validate checks the options for values Load would reject.
func (o Options) Validate() error {
	if o.MaxDiagnostics < 0 {
		return fmt.Errorf("max_diagnostics must not be negative, got %d", o.MaxDiagnostics)
	}
	_, err := o.Policy()
	return err
}

// Policy maps the textual join policy onto the verifier's enum.
func (o Options) Policy() (verify.JoinPolicy, error) {
	switch o.JoinPolicy {
	case "", "move-wins":
		return verify.JoinMoveWins, nil
	case "error":
		return verify.JoinError, nil
	}
	return verify.JoinMoveWins, fmt.Errorf("unknown join_policy %q", o.JoinPolicy)
}
