package android

import (
	"fmt"

	"github.com/frantjc/goapk/internal/goapkregexp"
)

const (
	AndroidManifestName = "AndroidManifest.xml"

	// DefaultActivityName is the activity launched when the
	// configuration does not name one. It hosts native code
	// without any Java on the application's side.
	DefaultActivityName = "android.app.NativeActivity"

	// DefaultConfigChanges keeps the activity alive across the
	// configuration changes native apps commonly handle themselves.
	DefaultConfigChanges = "orientation|keyboardHidden|screenSize"
)

type InvalidPackageNameError struct {
	Package string
}

func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q", e.Package)
}

// ValidatePackage checks that the given package identifier is a
// non-empty reverse-domain name.
func ValidatePackage(pkg string) error {
	if !goapkregexp.IsPackageName(pkg) {
		return &InvalidPackageNameError{Package: pkg}
	}

	return nil
}

// SanitizePackage derives a filesystem-friendly name from a package
// identifier by mapping every rune outside [A-Za-z0-9_] to '_'.
func SanitizePackage(pkg string) string {
	b := []byte(pkg)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			b[i] = '_'
		}
	}

	return string(b)
}

// Manifest is the typed source of an AndroidManifest.xml. The declarative
// configuration decodes directly into it; the synthesizer turns it into an
// Element tree. Optional values are pointers so that unset and zero are
// distinguishable, as attribute omission is meaningful to the platform.
type Manifest struct {
	Package      string `toml:"package" yaml:"package"`
	SharedUserID string `toml:"shared_user_id" yaml:"shared_user_id"`

	// VersionCode and VersionName are derived from the project version
	// by the loader, never set in the configuration document.
	VersionCode uint32 `toml:"-" yaml:"-"`
	VersionName string `toml:"-" yaml:"-"`

	SDK             SDK          `toml:"sdk" yaml:"sdk"`
	UsesFeatures    []Feature    `toml:"uses_feature" yaml:"uses_feature"`
	UsesPermissions []Permission `toml:"uses_permission" yaml:"uses_permission"`
	Queries         *Queries     `toml:"queries" yaml:"queries"`
	Application     Application  `toml:"application" yaml:"application"`
}

type SDK struct {
	MinSDKVersion    *int `toml:"min_sdk_version" yaml:"min_sdk_version"`
	TargetSDKVersion *int `toml:"target_sdk_version" yaml:"target_sdk_version"`
	MaxSDKVersion    *int `toml:"max_sdk_version" yaml:"max_sdk_version"`
}

type Feature struct {
	Name     string  `toml:"name" yaml:"name"`
	Required *bool   `toml:"required" yaml:"required"`
	Version  *string `toml:"version" yaml:"version"`
}

type Permission struct {
	Name          string `toml:"name" yaml:"name"`
	MaxSDKVersion *int   `toml:"max_sdk_version" yaml:"max_sdk_version"`
}

type Queries struct {
	Providers []QueryProvider `toml:"provider" yaml:"provider"`
	Intents   []QueryIntent   `toml:"intent" yaml:"intent"`
	Packages  []QueryPackage  `toml:"package" yaml:"package"`
}

type QueryProvider struct {
	Authorities string `toml:"authorities" yaml:"authorities"`
	Name        string `toml:"name" yaml:"name"`
}

type QueryIntent struct {
	Actions []string           `toml:"actions" yaml:"actions"`
	Data    []IntentFilterData `toml:"data" yaml:"data"`
}

type QueryPackage struct {
	Name string `toml:"name" yaml:"name"`
}

type MetaData struct {
	Name  string `toml:"name" yaml:"name"`
	Value string `toml:"value" yaml:"value"`
}

type Application struct {
	Debuggable           *bool      `toml:"debuggable" yaml:"debuggable"`
	Theme                string     `toml:"theme" yaml:"theme"`
	Icon                 string     `toml:"icon" yaml:"icon"`
	Label                string     `toml:"label" yaml:"label"`
	ExtractNativeLibs    *bool      `toml:"extract_native_libs" yaml:"extract_native_libs"`
	UsesCleartextTraffic *bool      `toml:"uses_cleartext_traffic" yaml:"uses_cleartext_traffic"`
	MetaData             []MetaData `toml:"meta_data" yaml:"meta_data"`
	Activity             Activity   `toml:"activity" yaml:"activity"`
}

type Activity struct {
	Name                  string         `toml:"name" yaml:"name"`
	ConfigChanges         *string        `toml:"config_changes" yaml:"config_changes"`
	Label                 string         `toml:"label" yaml:"label"`
	LaunchMode            string         `toml:"launch_mode" yaml:"launch_mode"`
	Orientation           string         `toml:"orientation" yaml:"orientation"`
	Exported              *bool          `toml:"exported" yaml:"exported"`
	ResizeableActivity    *bool          `toml:"resizeable_activity" yaml:"resizeable_activity"`
	AlwaysRetainTaskState *bool          `toml:"always_retain_task_state" yaml:"always_retain_task_state"`
	MetaData              []MetaData     `toml:"meta_data" yaml:"meta_data"`
	IntentFilters         []IntentFilter `toml:"intent_filter" yaml:"intent_filter"`
}

type IntentFilter struct {
	Actions    []string           `toml:"actions" yaml:"actions"`
	Categories []string           `toml:"categories" yaml:"categories"`
	Data       []IntentFilterData `toml:"data" yaml:"data"`
}

type IntentFilterData struct {
	MimeType   string `toml:"mime_type" yaml:"mime_type"`
	Scheme     string `toml:"scheme" yaml:"scheme"`
	Host       string `toml:"host" yaml:"host"`
	Port       string `toml:"port" yaml:"port"`
	Path       string `toml:"path" yaml:"path"`
	PathPrefix string `toml:"path_prefix" yaml:"path_prefix"`
}
