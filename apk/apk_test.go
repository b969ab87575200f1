package apk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frantjc/goapk/android"
	"github.com/frantjc/goapk/config"
	"github.com/frantjc/goapk/ndk"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Manifest: android.Manifest{
			Package: "com.foo.bar",
			SDK: android.SDK{
				MinSDKVersion:    intPtr(23),
				TargetSDKVersion: intPtr(30),
			},
		},
		APKName: "com_foo_bar",
		Signing: map[string]config.SigningKey{
			"release": {Path: "release.keystore", KeystorePassword: "hunter2"},
		},
		Dir: t.TempDir(),
	}
}

func testArtifact(t *testing.T, target android.Target) ndk.Artifact {
	t.Helper()

	lib := filepath.Join(t.TempDir(), "libfrob.so")
	require.NoError(t, os.WriteFile(lib, []byte("elf"), 0o755))

	return ndk.Artifact{Target: target, Lib: lib}
}

// capture records what the fake archiver saw while the staging
// workspace still existed.
type capture struct {
	layout   Layout
	manifest []byte
}

func testBuilder(t *testing.T, cfg *config.Config, signErr error) (*Builder, *capture) {
	t.Helper()

	captured := &capture{}

	return &Builder{
		Config:    cfg,
		Policy:    android.DefaultSynthesisPolicy(),
		Profile:   "release",
		LibName:   "frob",
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Archiver: ArchiverFunc(func(_ context.Context, l *Layout, out string) error {
			captured.layout = *l

			var err error
			if captured.manifest, err = os.ReadFile(l.ManifestPath); err != nil {
				return err
			}

			return os.WriteFile(out, []byte("apk"), 0o644)
		}),
		SignTool: SignToolFunc(func(_ context.Context, _ string, _ *Key) error {
			return signErr
		}),
		Keys: &KeyResolver{Signing: cfg.Signing, Dir: cfg.Dir},
	}, captured
}

func TestPackage(t *testing.T) {
	t.Parallel()

	var (
		cfg               = testConfig(t)
		builder, captured = testBuilder(t, cfg, nil)
		artifact          = testArtifact(t, android.TargetArm64V8a)
	)

	out, err := builder.Package(context.Background(), []ndk.Artifact{artifact})
	require.NoError(t, err)
	require.Equal(t, builder.Out(), out)
	require.FileExists(t, out)

	require.Equal(t, []string{"lib/arm64-v8a/libfrob.so"}, captured.layout.Libs)

	manifest := string(captured.manifest)
	require.Contains(t, manifest, `package="com.foo.bar"`)
	require.Contains(t, manifest, `android:name="android.app.lib_name"`)
	require.Contains(t, manifest, `android:value="frob"`)
	// Not the dev profile, so not implicitly debuggable.
	require.NotContains(t, manifest, "android:debuggable")

	// The staging workspace and the unsigned intermediate are gone.
	entries, err := os.ReadDir(builder.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "com_foo_bar.apk", entries[0].Name())
}

func TestPackageDevProfileDebuggable(t *testing.T) {
	t.Parallel()

	var (
		cfg               = testConfig(t)
		builder, captured = testBuilder(t, cfg, nil)
	)
	builder.Profile = DevProfile
	builder.Keys = &KeyResolver{
		DebugKeystore: filepath.Join(t.TempDir(), "debug.keystore"),
		KeyGen:        &fakeKeyGen{},
	}

	_, err := builder.Package(context.Background(), []ndk.Artifact{testArtifact(t, android.TargetArm64V8a)})
	require.NoError(t, err)

	require.Contains(t, string(captured.manifest), `android:debuggable="true"`)
}

func TestPackageSigningFailureLeavesNoPackage(t *testing.T) {
	t.Parallel()

	var (
		cfg        = testConfig(t)
		builder, _ = testBuilder(t, cfg, os.ErrPermission)
	)

	_, err := builder.Package(context.Background(), []ndk.Artifact{testArtifact(t, android.TargetArm64V8a)})
	signingErr := &SigningError{}
	require.ErrorAs(t, err, &signingErr)
	require.Equal(t, "release", signingErr.Profile)

	require.NoFileExists(t, builder.Out())

	entries, err := os.ReadDir(builder.OutputDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPackageMissingArtifact(t *testing.T) {
	t.Parallel()

	var (
		cfg        = testConfig(t)
		builder, _ = testBuilder(t, cfg, nil)
		missing    = filepath.Join(t.TempDir(), "libfrob.so")
	)

	_, err := builder.Package(context.Background(), []ndk.Artifact{{Target: android.TargetArm64V8a, Lib: missing}})
	packagingErr := &PackagingError{}
	require.ErrorAs(t, err, &packagingErr)
	require.Equal(t, missing, packagingErr.Path)
	require.NoFileExists(t, builder.Out())
}

func TestPackageMissingResources(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Resources = "res"
	builder, _ := testBuilder(t, cfg, nil)

	_, err := builder.Package(context.Background(), []ndk.Artifact{testArtifact(t, android.TargetArm64V8a)})
	packagingErr := &PackagingError{}
	require.ErrorAs(t, err, &packagingErr)
	require.True(t, strings.HasSuffix(packagingErr.Path, "res"), packagingErr.Path)
}

func TestPackageStagesResourcesAssetsAndRuntimeLibs(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Resources = "res"
	cfg.Assets = "assets"
	cfg.RuntimeLibs = "runtime_libs"

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dir, "res", "values"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "res", "values", "strings.xml"), []byte("<resources/>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "assets", "frob.dat"), []byte("data"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Dir, "runtime_libs", "arm64-v8a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir, "runtime_libs", "arm64-v8a", "libextra.so"), []byte("elf"), 0o755))

	builder, captured := testBuilder(t, cfg, nil)

	archive := builder.Archiver
	builder.Archiver = ArchiverFunc(func(ctx context.Context, l *Layout, out string) error {
		require.FileExists(t, filepath.Join(l.ResourcesDirectory, "values", "strings.xml"))
		require.FileExists(t, filepath.Join(l.AssetsDirectory, "frob.dat"))
		return archive.Archive(ctx, l, out)
	})

	_, err := builder.Package(context.Background(), []ndk.Artifact{testArtifact(t, android.TargetArm64V8a)})
	require.NoError(t, err)

	require.Equal(t, []string{"lib/arm64-v8a/libextra.so", "lib/arm64-v8a/libfrob.so"}, captured.layout.Libs)
}
