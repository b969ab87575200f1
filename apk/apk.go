package apk

import (
	"context"

	// Registers the digest algorithm used for package digests.
	_ "crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/frantjc/goapk"
	"github.com/frantjc/goapk/android"
	"github.com/frantjc/goapk/config"
	"github.com/frantjc/goapk/ndk"
	"github.com/opencontainers/go-digest"
)

type PackagingError struct {
	Path string
	Err  error
}

func (e *PackagingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("packaging %s: %s", e.Path, e.Err)
	}

	return fmt.Sprintf("packaging: missing %s", e.Path)
}

func (e *PackagingError) Unwrap() error {
	return e.Err
}

// Layout is the staging directory tree mirroring the final archive.
type Layout struct {
	// Dir is the staging root. Removed after archiving on every path.
	Dir string
	// ManifestPath is the serialized manifest at the layout root.
	ManifestPath string
	// ResourcesDirectory and AssetsDirectory are staged copies of the
	// configured trees, empty when unconfigured.
	ResourcesDirectory string
	AssetsDirectory    string
	// Libs are the lib/<abi>/*.so entries, relative to Dir, in a
	// stable lexicographic order.
	Libs []string
}

// Archiver archives a staging layout into an unsigned package.
type Archiver interface {
	Archive(ctx context.Context, layout *Layout, out string) error
}

// ArchiverFunc adapts a function to Archiver.
type ArchiverFunc func(ctx context.Context, layout *Layout, out string) error

func (f ArchiverFunc) Archive(ctx context.Context, layout *Layout, out string) error {
	return f(ctx, layout, out)
}

// SignTool signs an assembled package in place.
type SignTool interface {
	Sign(ctx context.Context, apk string, key *Key) error
}

// SignToolFunc adapts a function to SignTool.
type SignToolFunc func(ctx context.Context, apk string, key *Key) error

func (f SignToolFunc) Sign(ctx context.Context, apk string, key *Key) error {
	return f(ctx, apk, key)
}

// Builder assembles built artifacts into a signed package.
type Builder struct {
	Config  *config.Config
	Policy  android.SynthesisPolicy
	Profile string
	// LibName is the base name of the primary shared library,
	// advertised to the platform through android.app.lib_name.
	LibName string
	// OutputDir receives the final package and holds the transient
	// staging workspace.
	OutputDir string

	Archiver Archiver
	SignTool SignTool
	Keys     *KeyResolver
}

// Out is the declared location of the final signed package.
func (b *Builder) Out() string {
	return filepath.Join(b.OutputDir, b.Config.APKName+".apk")
}

// Package stages the manifest, resources, assets, and per-target
// artifacts, archives them, and signs the result. The final package
// appears at Out only after every stage has succeeded; the staging
// workspace is removed on every exit path.
func (b *Builder) Package(ctx context.Context, artifacts []ndk.Artifact) (string, error) {
	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return "", &PackagingError{Path: b.OutputDir, Err: err}
	}

	staging, err := os.MkdirTemp(b.OutputDir, ".staging-*")
	if err != nil {
		return "", &PackagingError{Path: b.OutputDir, Err: err}
	}
	defer os.RemoveAll(staging)

	layout, err := b.stage(ctx, staging, artifacts)
	if err != nil {
		return "", err
	}

	unsigned := filepath.Join(b.OutputDir, b.Config.APKName+".unsigned.apk")
	defer os.Remove(unsigned)

	if err := b.Archiver.Archive(ctx, layout, unsigned); err != nil {
		return "", &PackagingError{Path: unsigned, Err: err}
	}

	key, err := b.Keys.Resolve(ctx, b.Profile)
	if err != nil {
		return "", err
	}

	goapk.LoggerFrom(ctx).Info("signing "+b.Out(), "keystore", key.Keystore)

	if err := b.SignTool.Sign(ctx, unsigned, key); err != nil {
		return "", &SigningError{Profile: b.Profile, Err: err}
	}

	out := b.Out()
	if err := os.Rename(unsigned, out); err != nil {
		return "", &PackagingError{Path: out, Err: err}
	}

	return out, nil
}

func (b *Builder) stage(ctx context.Context, staging string, artifacts []ndk.Artifact) (*Layout, error) {
	var (
		cfg    = b.Config
		layout = &Layout{
			Dir:          staging,
			ManifestPath: filepath.Join(staging, android.AndroidManifestName),
		}
	)

	contents, err := android.SynthesizeBytes(b.manifest(), b.Policy)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(layout.ManifestPath, contents, 0o644); err != nil {
		return nil, &PackagingError{Path: layout.ManifestPath, Err: err}
	}

	if cfg.Resources != "" {
		layout.ResourcesDirectory = filepath.Join(staging, "res")
		if err := copyTree(cfg.Path(cfg.Resources), layout.ResourcesDirectory); err != nil {
			return nil, err
		}
	}

	if cfg.Assets != "" {
		layout.AssetsDirectory = filepath.Join(staging, "assets")
		if err := copyTree(cfg.Path(cfg.Assets), layout.AssetsDirectory); err != nil {
			return nil, err
		}
	}

	for _, artifact := range artifacts {
		abiDir := filepath.Join(staging, "lib", artifact.Target.ABI())

		if _, err := os.Stat(artifact.Lib); err != nil {
			return nil, &PackagingError{Path: artifact.Lib}
		}

		if err := copyFile(artifact.Lib, filepath.Join(abiDir, filepath.Base(artifact.Lib))); err != nil {
			return nil, err
		}

		// Runtime libraries matching the target's ABI ship beside
		// the primary artifact so dlopen finds them.
		if cfg.RuntimeLibs != "" {
			src := filepath.Join(cfg.Path(cfg.RuntimeLibs), artifact.Target.ABI())
			if _, err := os.Stat(src); err == nil {
				if err := copyTree(src, abiDir); err != nil {
					return nil, err
				}
			}
		}
	}

	libDir := filepath.Join(staging, "lib")
	if _, err := os.Stat(libDir); err == nil {
		if err := filepath.WalkDir(libDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			} else if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(staging, path)
			if err != nil {
				return err
			}

			layout.Libs = append(layout.Libs, filepath.ToSlash(rel))
			return nil
		}); err != nil {
			return nil, &PackagingError{Path: libDir, Err: err}
		}
	}

	// Stable archive entry order regardless of filesystem order.
	sort.Strings(layout.Libs)

	return layout, nil
}

// manifest derives the manifest to synthesize from the configuration,
// applying the profile- and artifact-dependent values the loader
// cannot know.
func (b *Builder) manifest() *android.Manifest {
	manifest := b.Config.Manifest

	if manifest.Application.Debuggable == nil && b.Profile == DevProfile {
		debuggable := true
		manifest.Application.Debuggable = &debuggable
	}

	if b.LibName != "" {
		activity := &manifest.Application.Activity
		activity.MetaData = append(append([]android.MetaData{}, activity.MetaData...), android.MetaData{
			Name:  "android.app.lib_name",
			Value: b.LibName,
		})
	}

	return &manifest
}

// Digest is the content digest of the package at name.
func Digest(name string) (digest.Digest, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return digest.SHA256.FromReader(f)
}

func copyFile(src, dst string) error {
	contents, err := os.ReadFile(src)
	if err != nil {
		return &PackagingError{Path: src, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &PackagingError{Path: dst, Err: err}
	}

	if err := os.WriteFile(dst, contents, 0o755); err != nil {
		return &PackagingError{Path: dst, Err: err}
	}

	return nil
}

// copyTree copies src's tree under dst verbatim, preserving
// relative paths.
func copyTree(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return &PackagingError{Path: src}
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return &PackagingError{Path: dst, Err: err}
	}

	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return &PackagingError{Path: src, Err: err}
	}

	return nil
}
