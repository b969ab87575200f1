package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/goapk/android"
	"github.com/frantjc/goapk/ndk"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestLoadMinimal(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "goapk.toml", `package = "com.foo.bar"`)

	cfg, unrecognized, err := Load(path, nil)
	require.NoError(t, err)
	require.Empty(t, unrecognized)

	require.Equal(t, "com.foo.bar", cfg.Package)
	require.Equal(t, []android.Target{android.TargetArm64V8a}, cfg.Targets)
	require.Equal(t, "com_foo_bar", cfg.APKName)
	require.Equal(t, DefaultVersion, cfg.Version)
	require.Equal(t, DefaultVersion, cfg.VersionName)

	require.NotNil(t, cfg.SDK.MinSDKVersion)
	require.Equal(t, 23, *cfg.SDK.MinSDKVersion)
	require.NotNil(t, cfg.SDK.TargetSDKVersion)
	require.Equal(t, 30, *cfg.SDK.TargetSDKVersion)

	require.Equal(t, ndk.SymbolPolicyDefault, cfg.SymbolPolicy)
	require.Equal(t, "com_foo_bar", cfg.Application.Label)

	// A launchable intent filter is synthesized when none is declared.
	require.Len(t, cfg.Application.Activity.IntentFilters, 1)
	require.Equal(t, []string{"android.intent.action.MAIN"}, cfg.Application.Activity.IntentFilters[0].Actions)
	require.Equal(t, []string{"android.intent.category.LAUNCHER"}, cfg.Application.Activity.IntentFilters[0].Categories)
}

func TestLoadFull(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"
version = "1.2.3"
build_targets = ["aarch64-linux-android", "armeabi-v7a"]
apk_name = "frob"
strip = "split"

[sdk]
min_sdk_version = 24
target_sdk_version = 33

[[uses_permission]]
name = "android.permission.WRITE_EXTERNAL_STORAGE"
max_sdk_version = 18

[signing.release]
path = "release.keystore"
keystore_password = "hunter2"

[reverse_port_forward]
"tcp:8080" = "tcp:8080"
`)

	cfg, unrecognized, err := Load(path, nil)
	require.NoError(t, err)
	require.Empty(t, unrecognized)

	require.Equal(t, []android.Target{android.TargetArm64V8a, android.TargetArmV7a}, cfg.Targets)
	require.Equal(t, "frob", cfg.APKName)
	require.Equal(t, ndk.SymbolPolicySplit, cfg.SymbolPolicy)
	require.Equal(t, uint32(1<<24|1<<16|2<<8|3), cfg.VersionCode)
	require.Equal(t, "1.2.3", cfg.VersionName)

	require.Len(t, cfg.UsesPermissions, 1)
	require.NotNil(t, cfg.UsesPermissions[0].MaxSDKVersion)
	require.Equal(t, 18, *cfg.UsesPermissions[0].MaxSDKVersion)

	require.Equal(t, SigningKey{Path: "release.keystore", KeystorePassword: "hunter2"}, cfg.Signing["release"])
	require.Equal(t, "tcp:8080", cfg.ReversePortForward["tcp:8080"])
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "goapk.yaml", `
package: com.foo.bar
version: 0.2.0
build_targets:
  - x86_64
application:
  label: Frob
`)

	cfg, unrecognized, err := Load(path, nil)
	require.NoError(t, err)
	require.Empty(t, unrecognized)

	require.Equal(t, []android.Target{android.TargetX86_64}, cfg.Targets)
	require.Equal(t, "Frob", cfg.Application.Label)
	require.Equal(t, uint32(1<<24|2<<8), cfg.VersionCode)
}

func TestLoadUnrecognizedKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"
not_a_key = true

[application]
not_a_nested_key = "x"
`)

	cfg, unrecognized, err := Load(path, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Contains(t, unrecognized, "not_a_key")
	require.Contains(t, unrecognized, "application.not_a_nested_key")
}

func TestLoadUnrecognizedYAMLKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "goapk.yaml", `
package: com.foo.bar
not_a_key: true
application:
  not_a_nested_key: x
`)

	cfg, unrecognized, err := Load(path, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Contains(t, unrecognized, "not_a_key")
	require.Contains(t, unrecognized, "application.not_a_nested_key")
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid package", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `package = "nodots"`)
		_, _, err := Load(path, nil)
		invalidErr := &android.InvalidPackageNameError{}
		require.ErrorAs(t, err, &invalidErr)
	})

	t.Run("unsupported target", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"
build_targets = ["riscv64-linux-android"]
`)
		_, _, err := Load(path, nil)
		unsupportedErr := &android.UnsupportedTargetError{}
		require.ErrorAs(t, err, &unsupportedErr)
	})

	t.Run("target below min", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"

[sdk]
min_sdk_version = 30
target_sdk_version = 24
`)
		_, _, err := Load(path, nil)
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})

	t.Run("invalid version", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"
version = "one point oh"
`)
		_, _, err := Load(path, nil)
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})

	t.Run("version component over 255", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"
version = "256.0.0"
`)
		_, _, err := Load(path, nil)
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})

	t.Run("invalid apk name", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"
apk_name = "has space"
`)
		_, _, err := Load(path, nil)
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})

	t.Run("invalid symbol policy", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"
strip = "shred"
`)
		_, _, err := Load(path, nil)
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})

	t.Run("invalid port spec", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"

[reverse_port_forward]
"8080" = "tcp:8080"
`)
		_, _, err := Load(path, nil)
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})
}

func TestLoadPlatformCeiling(t *testing.T) {
	t.Parallel()

	t.Run("clamps declared target", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"

[sdk]
target_sdk_version = 33
`)
		cfg, _, err := Load(path, &Opts{PlatformCeiling: 28})
		require.NoError(t, err)
		require.Equal(t, 28, *cfg.SDK.TargetSDKVersion)
	})

	t.Run("clamps default target", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `package = "com.foo.bar"`)
		cfg, _, err := Load(path, &Opts{PlatformCeiling: 28})
		require.NoError(t, err)
		require.Equal(t, 28, *cfg.SDK.TargetSDKVersion)
	})

	t.Run("ceiling below min", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"

[sdk]
min_sdk_version = 30
`)
		_, _, err := Load(path, &Opts{PlatformCeiling: 28})
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})

	t.Run("ceiling cannot clamp target below declared min", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"

[sdk]
min_sdk_version = 30
target_sdk_version = 33
`)
		_, _, err := Load(path, &Opts{PlatformCeiling: 28})
		configErr := &ConfigError{}
		require.ErrorAs(t, err, &configErr)
	})
}

func TestLoadTargetDefaultsAboveMin(t *testing.T) {
	t.Parallel()

	// A min above the stock default pulls the defaulted target up with
	// it so the manifest never declares target < min.
	path := writeConfig(t, "goapk.toml", `
package = "com.foo.bar"

[sdk]
min_sdk_version = 34
`)

	cfg, _, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 34, *cfg.SDK.MinSDKVersion)
	require.Equal(t, 34, *cfg.SDK.TargetSDKVersion)
	require.LessOrEqual(t, *cfg.SDK.MinSDKVersion, *cfg.SDK.TargetSDKVersion)
}

func TestVersionCode(t *testing.T) {
	t.Parallel()

	for version, want := range map[string]uint32{
		"1.2.3":         1<<24 | 1<<16 | 2<<8 | 3,
		"0.1.0":         1<<24 | 1<<8,
		"1.2.3-rc.1":    1<<24 | 1<<16 | 2<<8 | 3,
		"1.2.3+build.5": 1<<24 | 1<<16 | 2<<8 | 3,
		"255.0.0":       1<<24 | 255<<16,
	} {
		code, err := versionCode(version)
		require.NoError(t, err, version)
		require.Equal(t, want, code, version)
	}

	// Components beyond the 8-bit field would collide with other
	// versions' codes rather than order after them.
	for _, version := range []string{"256.0.0", "1.256.0", "1.0.256"} {
		_, err := versionCode(version)
		require.Error(t, err, version)
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	cfg := &Config{Dir: filepath.Join("some", "dir")}
	require.Equal(t, filepath.Join("some", "dir", "res"), cfg.Path("res"))
	require.Equal(t, "", cfg.Path(""))

	abs, err := filepath.Abs("res")
	require.NoError(t, err)
	require.Equal(t, abs, cfg.Path(abs))
}
