package aapt

import (
	"context"
	"os/exec"
)

// Package finds `aapt` on the PATH and runs Package against it.
// See Command.Package.
func Package(ctx context.Context, out string, opts *PackageOpts) error {
	return Command("aapt").Package(ctx, out, opts)
}

// Command represents the path to an `aapt` executable.
type Command string

func (c Command) String() string {
	return string(c)
}

// PackageOpts represent flags that can be passed to `aapt package`.
type PackageOpts struct {
	Force              bool
	ManifestPath       string
	IncludeJar         string
	ResourcesDirectory string
	AssetsDirectory    string
	NoCompress         bool
}

// Package executes `aapt package` against the Command, creating the
// archive at out from the manifest, resources, and assets named by the
// given PackageOpts.
func (c Command) Package(ctx context.Context, out string, opts *PackageOpts) error {
	args := []string{"package"}

	if opts != nil {
		if opts.Force {
			args = append(args, "-f")
		}

		if opts.ManifestPath != "" {
			args = append(args, "-M", opts.ManifestPath)
		}

		if opts.IncludeJar != "" {
			args = append(args, "-I", opts.IncludeJar)
		}

		if opts.ResourcesDirectory != "" {
			args = append(args, "-S", opts.ResourcesDirectory)
		}

		if opts.AssetsDirectory != "" {
			args = append(args, "-A", opts.AssetsDirectory)
		}

		if opts.NoCompress {
			args = append(args, "-0", "")
		}
	}

	args = append(args, "-F", out)

	//nolint:gosec
	return exec.CommandContext(ctx, c.String(), args...).Run()
}

// AddOpts represent flags that can be passed to `aapt add`.
type AddOpts struct {
	// WorkingDirectory is the directory names are relative to. `aapt add`
	// stores entries under the given name verbatim, so archive-relative
	// paths must be passed from the staging layout's root.
	WorkingDirectory string
}

// Add executes `aapt add` against the Command, appending the named
// files to the archive.
func (c Command) Add(ctx context.Context, apk string, names []string, opts *AddOpts) error {
	args := append([]string{"add", apk}, names...)

	//nolint:gosec
	cmd := exec.CommandContext(ctx, c.String(), args...)

	if opts != nil {
		cmd.Dir = opts.WorkingDirectory
	}

	return cmd.Run()
}
