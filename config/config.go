package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/frantjc/goapk/android"
	"github.com/frantjc/goapk/internal/goapkregexp"
	"github.com/frantjc/goapk/ndk"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigName is looked for in the working directory when
	// no configuration path is given, with DefaultConfigYAMLName as
	// the fallback.
	DefaultConfigName     = "goapk.toml"
	DefaultConfigYAMLName = "goapk.yaml"

	// DefaultMinSDKVersion retains compatibility with the oldest
	// platform the NDK toolchains still link against.
	DefaultMinSDKVersion = 23
	// DefaultTargetSDKVersion applies when the configuration and the
	// toolchain ceiling are both silent.
	DefaultTargetSDKVersion = 30

	// DefaultVersion applies when the configuration declares no version.
	DefaultVersion = "0.1.0"
)

type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Reason, e.Err)
	}

	return "invalid configuration: " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SigningKey is one entry of the configuration's signing table.
type SigningKey struct {
	Path             string `toml:"path" yaml:"path"`
	KeystorePassword string `toml:"keystore_password" yaml:"keystore_password"`
}

// Config is the validated configuration tree. It is treated as
// immutable once Load returns it.
type Config struct {
	android.Manifest `yaml:",inline"`

	Version            string                `toml:"version" yaml:"version"`
	BuildTargets       []string              `toml:"build_targets" yaml:"build_targets"`
	Resources          string                `toml:"resources" yaml:"resources"`
	Assets             string                `toml:"assets" yaml:"assets"`
	RuntimeLibs        string                `toml:"runtime_libs" yaml:"runtime_libs"`
	APKName            string                `toml:"apk_name" yaml:"apk_name"`
	Strip              string                `toml:"strip" yaml:"strip"`
	Signing            map[string]SigningKey `toml:"signing" yaml:"signing"`
	ReversePortForward map[string]string     `toml:"reverse_port_forward" yaml:"reverse_port_forward"`

	// Targets is BuildTargets parsed and normalized.
	Targets []android.Target `toml:"-" yaml:"-"`
	// SymbolPolicy is Strip parsed.
	SymbolPolicy ndk.SymbolPolicy `toml:"-" yaml:"-"`
	// Dir is the directory of the configuration document. Relative
	// paths in the document resolve against it.
	Dir string `toml:"-" yaml:"-"`
}

// Opts influence validation and defaulting.
type Opts struct {
	// PlatformCeiling is the highest platform version the detected
	// toolchain supports. Zero disables clamping.
	PlatformCeiling int
}

// Load reads, validates, and defaults the configuration document at
// path. The returned string slice names every unrecognized key in the
// document; unrecognized keys are deliberately not an error.
func Load(path string, opts *Opts) (*Config, []string, error) {
	if opts == nil {
		opts = &Opts{}
	}

	if path == "" {
		path = DefaultConfigName
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = DefaultConfigYAMLName
		}
	}

	var (
		cfg          Config
		unrecognized []string
	)

	switch ext := filepath.Ext(path); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, nil, &ConfigError{Reason: "decode " + path, Err: err}
		}

		for _, key := range md.Undecoded() {
			unrecognized = append(unrecognized, key.String())
		}
	case ".yaml", ".yml":
		contents, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, nil, &ConfigError{Reason: "read " + path, Err: err}
		}

		var doc yaml.Node
		if err := yaml.Unmarshal(contents, &doc); err != nil {
			return nil, nil, &ConfigError{Reason: "decode " + path, Err: err}
		}

		if err := doc.Decode(&cfg); err != nil {
			return nil, nil, &ConfigError{Reason: "decode " + path, Err: err}
		}

		unrecognized = undecodedYAMLKeys(&doc, &cfg)
	default:
		return nil, nil, &ConfigError{Reason: fmt.Sprintf("unsupported configuration format %q", ext)}
	}

	cfg.Dir = filepath.Dir(path)

	if err := validate(&cfg); err != nil {
		return nil, nil, err
	}

	if err := applyDefaults(&cfg, opts); err != nil {
		return nil, nil, err
	}

	return &cfg, unrecognized, nil
}

func validate(cfg *Config) error {
	if err := android.ValidatePackage(cfg.Package); err != nil {
		return err
	}

	for _, raw := range cfg.BuildTargets {
		target, err := android.ParseTarget(raw)
		if err != nil {
			return err
		}

		cfg.Targets = append(cfg.Targets, target)
	}

	policy, err := ndk.ParseSymbolPolicy(cfg.Strip)
	if err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	cfg.SymbolPolicy = policy

	if cfg.Version != "" {
		if !semver.IsValid("v" + cfg.Version) {
			return &ConfigError{Reason: fmt.Sprintf("version %q is not a semantic version", cfg.Version)}
		}

		if _, err := versionCode(cfg.Version); err != nil {
			return &ConfigError{Reason: err.Error()}
		}
	}

	if cfg.APKName != "" && !goapkregexp.IsAPK(cfg.APKName+".apk") {
		return &ConfigError{Reason: fmt.Sprintf("invalid apk_name %q", cfg.APKName)}
	}

	var (
		sdk    = cfg.SDK
		minSDK = DefaultMinSDKVersion
	)
	if sdk.MinSDKVersion != nil {
		minSDK = *sdk.MinSDKVersion
	}
	if sdk.TargetSDKVersion != nil && *sdk.TargetSDKVersion < minSDK {
		return &ConfigError{Reason: fmt.Sprintf("target SDK version %d is below min SDK version %d", *sdk.TargetSDKVersion, minSDK)}
	}
	if sdk.MaxSDKVersion != nil {
		target := DefaultTargetSDKVersion
		if sdk.TargetSDKVersion != nil {
			target = *sdk.TargetSDKVersion
		}
		if *sdk.MaxSDKVersion < target {
			return &ConfigError{Reason: fmt.Sprintf("max SDK version %d is below target SDK version %d", *sdk.MaxSDKVersion, target)}
		}
	}

	for profile := range cfg.Signing {
		if !goapkregexp.IsProfile(profile) {
			return &ConfigError{Reason: fmt.Sprintf("invalid signing profile name %q", profile)}
		}
	}

	for device, host := range cfg.ReversePortForward {
		if !goapkregexp.IsPortSpec(device) || !goapkregexp.IsPortSpec(host) {
			return &ConfigError{Reason: fmt.Sprintf("invalid reverse port forward %q = %q", device, host)}
		}
	}

	return nil
}

func applyDefaults(cfg *Config, opts *Opts) error {
	if len(cfg.Targets) == 0 {
		cfg.Targets = []android.Target{android.TargetArm64V8a}
	}

	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	cfg.VersionName = cfg.Version
	// Components already validated to fit their fields.
	cfg.VersionCode, _ = versionCode(cfg.Version)

	if cfg.APKName == "" {
		cfg.APKName = android.SanitizePackage(cfg.Package)
	}

	if cfg.SDK.MinSDKVersion == nil {
		minSDK := DefaultMinSDKVersion
		cfg.SDK.MinSDKVersion = &minSDK
	}

	if cfg.SDK.TargetSDKVersion == nil {
		// A defaulted target never lands below the min.
		target := DefaultTargetSDKVersion
		if *cfg.SDK.MinSDKVersion > target {
			target = *cfg.SDK.MinSDKVersion
		}
		if opts.PlatformCeiling > 0 && opts.PlatformCeiling < target {
			target = opts.PlatformCeiling
		}
		cfg.SDK.TargetSDKVersion = &target
	} else if opts.PlatformCeiling > 0 && *cfg.SDK.TargetSDKVersion > opts.PlatformCeiling {
		target := opts.PlatformCeiling
		cfg.SDK.TargetSDKVersion = &target
	}

	if *cfg.SDK.TargetSDKVersion < *cfg.SDK.MinSDKVersion {
		return &ConfigError{Reason: fmt.Sprintf(
			"toolchain platform ceiling %d is below min SDK version %d",
			opts.PlatformCeiling, *cfg.SDK.MinSDKVersion,
		)}
	}

	activity := &cfg.Application.Activity

	if activity.ConfigChanges == nil {
		configChanges := android.DefaultConfigChanges
		activity.ConfigChanges = &configChanges
	}

	// A launchable activity needs a MAIN action. Only add one when the
	// configuration declares none of its own.
	hasMain := false
	for _, filter := range activity.IntentFilters {
		for _, action := range filter.Actions {
			if action == "android.intent.action.MAIN" {
				hasMain = true
			}
		}
	}
	if !hasMain {
		activity.IntentFilters = append(activity.IntentFilters, android.IntentFilter{
			Actions:    []string{"android.intent.action.MAIN"},
			Categories: []string{"android.intent.category.LAUNCHER"},
		})
	}

	if cfg.Application.Label == "" {
		cfg.Application.Label = cfg.APKName
	}

	return nil
}

// versionCode packs a MAJOR.MINOR.PATCH version into the platform's
// single integer version code, with a leading 1 keeping codes of
// successive versions strictly ordered. Each component gets an 8-bit
// field, so components over 255 are an error rather than a silent
// collision between distinct versions.
func versionCode(version string) (uint32, error) {
	core := strings.SplitN(version, "+", 2)[0]
	core = strings.SplitN(core, "-", 2)[0]

	var (
		fields = strings.SplitN(core, ".", 3)
		parts  [3]uint64
	)

	for i, field := range fields {
		part, err := strconv.ParseUint(field, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("version component %q does not fit the version code's 8-bit field", field)
		}

		parts[i] = part
	}

	return uint32(1<<24 | parts[0]<<16 | parts[1]<<8 | parts[2]), nil
}

// Path resolves a configuration-relative path against the
// configuration document's directory.
func (c *Config) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(c.Dir, rel)
}
