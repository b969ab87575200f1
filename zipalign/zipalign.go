package zipalign

import (
	"context"
	"os/exec"
	"strconv"
)

// Align finds `zipalign` on the PATH and runs Align against it.
// See Command.Align.
func Align(ctx context.Context, in, out string, opts *AlignOpts) error {
	return Command("zipalign").Align(ctx, in, out, opts)
}

// Command represents the path to a `zipalign` executable.
type Command string

func (c Command) String() string {
	return string(c)
}

// AlignOpts represent flags that can be passed to `zipalign`.
type AlignOpts struct {
	Force bool
	// Alignment in bytes. Zero means 4, which the platform requires
	// for uncompressed entries.
	Alignment int
}

// Align executes the Command against the archive at in, writing the
// aligned archive to out.
func (c Command) Align(ctx context.Context, in, out string, opts *AlignOpts) error {
	var (
		args      = []string{}
		alignment = 4
	)

	if opts != nil {
		if opts.Force {
			args = append(args, "-f")
		}

		if opts.Alignment > 0 {
			alignment = opts.Alignment
		}
	}

	args = append(args, strconv.Itoa(alignment), in, out)

	//nolint:gosec
	return exec.CommandContext(ctx, c.String(), args...).Run()
}
