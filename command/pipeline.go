package command

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/frantjc/goapk"
	"github.com/frantjc/goapk/aapt"
	"github.com/frantjc/goapk/adb"
	"github.com/frantjc/goapk/android"
	"github.com/frantjc/goapk/apk"
	"github.com/frantjc/goapk/apksigner"
	"github.com/frantjc/goapk/config"
	"github.com/frantjc/goapk/internal/goapkerr"
	"github.com/frantjc/goapk/keytool"
	"github.com/frantjc/goapk/ndk"
	"github.com/frantjc/goapk/zipalign"
	"github.com/google/uuid"
)

// pipeline wires the production bindings of every capability for
// one invocation.
type pipeline struct {
	cfg       *config.Config
	toolchain *ndk.Toolchain
	builder   *ndk.Builder
	packager  *apk.Builder
	bridge    *apk.ADBBridge
	keytool   keytool.Command
	serial    string
}

// opts are the invocation-scoped inputs shared by every command.
type opts struct {
	configPath    string
	profile       string
	serial        string
	debugKeystore string
}

func newPipeline(ctx context.Context, o *opts) (*pipeline, error) {
	log := goapk.LoggerFrom(ctx).WithValues("invocation", uuid.NewString())

	toolchain, err := ndk.FromEnv()
	if err != nil {
		return nil, err
	}

	cfg, unrecognized, err := config.Load(o.configPath, &config.Opts{
		PlatformCeiling: toolchain.PlatformCeiling(),
	})
	if err != nil {
		return nil, err
	}

	for _, key := range unrecognized {
		log.Info("ignoring unrecognized configuration key " + key)
	}

	buildDir := filepath.Join(cfg.Dir, "target", o.profile, "apk")

	includeJar, err := toolchain.AndroidJar(*cfg.SDK.TargetSDKVersion)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:       cfg,
		toolchain: toolchain,
		keytool:   keytool.Command("keytool"),
		serial:    o.serial,
		builder: &ndk.Builder{
			Compiler: &ndk.GoCompiler{
				Toolchain: toolchain,
				BuildDir:  buildDir,
				LibName:   cfg.APKName,
			},
			Stripper: toolchain.Stripper(),
			Policy:   cfg.SymbolPolicy,
			MinSDK:   *cfg.SDK.MinSDKVersion,
		},
		packager: &apk.Builder{
			Config:    cfg,
			Policy:    android.DefaultSynthesisPolicy(),
			Profile:   o.profile,
			LibName:   cfg.APKName,
			OutputDir: buildDir,
			Archiver: &apk.AAPTArchiver{
				AAPT:       aapt.Command(toolchain.AAPT()),
				Zipalign:   zipalign.Command(toolchain.Zipalign()),
				IncludeJar: includeJar,
				NoCompress: o.profile == apk.DevProfile,
			},
			SignTool: &apk.APKSignerSignTool{
				APKSigner: apksigner.Command(toolchain.APKSigner()),
			},
			Keys: &apk.KeyResolver{
				Signing:       cfg.Signing,
				Dir:           cfg.Dir,
				DebugKeystore: o.debugKeystore,
				KeyGen:        &apk.KeytoolKeyGen{Keytool: keytool.Command("keytool")},
			},
		},
		bridge: &apk.ADBBridge{
			ADB:    adb.Command(toolchain.ADB()),
			Serial: o.serial,
		},
	}, nil
}

// build runs compile, assemble, and sign, returning the per-target
// artifacts and the final package location.
func (p *pipeline) build(ctx context.Context) ([]ndk.Artifact, string, error) {
	log := goapk.LoggerFrom(ctx)

	artifacts, err := p.builder.Build(ctx, p.cfg.Targets)
	if err != nil {
		return nil, "", err
	}

	out, err := p.packager.Package(ctx, artifacts)
	if err != nil {
		return nil, "", err
	}

	if dgst, err := apk.Digest(out); err == nil {
		log.Info("built "+out, "digest", dgst.String())
	}

	if fingerprint, err := p.keytool.SHA256CertFingerprints(ctx, out); err == nil {
		log.V(1).Info("signed " + out + " with certificate " + fingerprint)
	}

	return artifacts, out, nil
}

func (p *pipeline) controller() *apk.DeviceController {
	return &apk.DeviceController{
		Bridge:   p.bridge,
		Debugger: &apk.NDKGDBDebugger{NDKGDB: p.toolchain.NDKGDB(), Serial: p.serial},
		Package:  p.cfg.Package,
		Activity: p.cfg.Application.Activity.Name,
		Forwards: p.cfg.ReversePortForward,
	}
}

// withExitCode maps stage errors onto distinct process exit codes so
// that scripts can tell what failed without parsing output.
func withExitCode(err error) error {
	var (
		configErr      *config.ConfigError
		packageNameErr *android.InvalidPackageNameError
		targetErr      *android.UnsupportedTargetError
		buildErr       *ndk.BuildError
		packagingErr   *apk.PackagingError
		signingErr     *apk.SigningError
		deviceErr      *adb.DeviceUnavailableError
	)

	switch {
	case err == nil:
		return nil
	case errors.As(err, &configErr), errors.As(err, &packageNameErr), errors.As(err, &targetErr):
		return goapkerr.ExitCodeError(err, 2)
	case errors.As(err, &buildErr):
		return goapkerr.ExitCodeError(err, 3)
	case errors.As(err, &packagingErr):
		return goapkerr.ExitCodeError(err, 4)
	case errors.As(err, &signingErr):
		return goapkerr.ExitCodeError(err, 5)
	case errors.As(err, &deviceErr):
		return goapkerr.ExitCodeError(err, 6)
	}

	return err
}
