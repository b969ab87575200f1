package apksigner

import (
	"context"
	"os/exec"
)

// Sign finds `apksigner` on the PATH and runs Sign against it.
// See Command.Sign.
func Sign(ctx context.Context, apk string, opts *SignOpts) error {
	return Command("apksigner").Sign(ctx, apk, opts)
}

// Command represents the path to an `apksigner` executable.
type Command string

func (c Command) String() string {
	return string(c)
}

// SignOpts represent flags that can be passed to `apksigner sign`.
type SignOpts struct {
	KeyStore         string
	KeyStorePassword string
	// Output receives the signed archive. Empty signs in place.
	Output string
}

// Sign executes `apksigner sign` against the Command, signing the
// archive at apk with the keystore named by the given SignOpts.
func (c Command) Sign(ctx context.Context, apk string, opts *SignOpts) error {
	args := []string{"sign"}

	if opts != nil {
		if opts.KeyStore != "" {
			args = append(args, "--ks", opts.KeyStore)
		}

		if opts.KeyStorePassword != "" {
			args = append(args, "--ks-pass", "pass:"+opts.KeyStorePassword)
		}

		if opts.Output != "" {
			args = append(args, "--out", opts.Output)
		}
	}

	args = append(args, apk)

	//nolint:gosec
	return exec.CommandContext(ctx, c.String(), args...).Run()
}
