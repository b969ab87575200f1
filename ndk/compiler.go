package ndk

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/frantjc/goapk/android"
)

// Compiler produces one shared library per target. Implementations
// kill any subprocess they spawned when ctx is canceled.
type Compiler interface {
	Compile(ctx context.Context, target android.Target, minSDK int) (string, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, target android.Target, minSDK int) (string, error)

func (f CompilerFunc) Compile(ctx context.Context, target android.Target, minSDK int) (string, error) {
	return f(ctx, target, minSDK)
}

// GoCompiler cross-compiles a Go package into a shared library with
// cgo bound to the NDK's clang driver for the target.
type GoCompiler struct {
	// Toolchain supplies per-target clang drivers.
	Toolchain *Toolchain
	// Package is the Go package pattern to build. Empty means the
	// package in the working directory.
	Package string
	// BuildDir receives one subdirectory per target.
	BuildDir string
	// LibName is the base name of the produced library,
	// lib<LibName>.so.
	LibName string
}

func (c *GoCompiler) Compile(ctx context.Context, target android.Target, minSDK int) (string, error) {
	clang, err := c.Toolchain.Clang(target, minSDK)
	if err != nil {
		return "", err
	}

	pkg := c.Package
	if pkg == "" {
		pkg = "."
	}

	lib := filepath.Join(c.BuildDir, target.String(), "lib"+c.LibName+".so")
	if err := os.MkdirAll(filepath.Dir(lib), 0o755); err != nil {
		return "", err
	}

	//nolint:gosec
	cmd := exec.CommandContext(ctx, "go", "build", "-buildmode=c-shared", "-o", lib, pkg)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		"GOOS=android",
		"GOARCH="+target.GOARCH(),
		"CC="+clang,
		"CXX="+clang+"++",
	)
	if target == android.TargetArmV7a {
		cmd.Env = append(cmd.Env, "GOARM=7")
	}

	if err := run(ctx, cmd); err != nil {
		return "", err
	}

	return lib, nil
}

type llvmStripper struct {
	strip   string
	objcopy string
}

func (s *llvmStripper) Strip(ctx context.Context, lib string) error {
	//nolint:gosec
	return run(ctx, exec.CommandContext(ctx, s.strip, "--strip-unneeded", lib))
}

func (s *llvmStripper) Split(ctx context.Context, lib, sidecar string) error {
	//nolint:gosec
	return run(ctx, exec.CommandContext(ctx, s.objcopy, "--only-keep-debug", lib, sidecar))
}
