package keytool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// GenKeyPair finds `keytool` on the PATH and runs GenKeyPair against it.
// See Command.GenKeyPair.
func GenKeyPair(ctx context.Context, keystore string, opts *GenKeyPairOpts) error {
	return Command("keytool").GenKeyPair(ctx, keystore, opts)
}

// Command represents the path to a `keytool` executable.
type Command string

func (c Command) String() string {
	return string(c)
}

// GenKeyPairOpts represent flags that can be passed to `keytool -genkeypair`.
type GenKeyPairOpts struct {
	Alias             string
	DistinguishedName string
	KeyStorePassword  string
	KeyAlgorithm      string
	KeySize           int
	ValidityDays      int
}

// GenKeyPair executes `keytool -genkeypair` against the Command,
// creating a keystore at the given path with one self-signed key pair.
func (c Command) GenKeyPair(ctx context.Context, keystore string, opts *GenKeyPairOpts) error {
	args := []string{"-genkeypair", "-keystore", keystore}

	if opts != nil {
		if opts.Alias != "" {
			args = append(args, "-alias", opts.Alias)
		}

		if opts.DistinguishedName != "" {
			args = append(args, "-dname", opts.DistinguishedName)
		}

		if opts.KeyStorePassword != "" {
			args = append(args, "-storepass", opts.KeyStorePassword, "-keypass", opts.KeyStorePassword)
		}

		if opts.KeyAlgorithm != "" {
			args = append(args, "-keyalg", opts.KeyAlgorithm)
		}

		if opts.KeySize > 0 {
			args = append(args, "-keysize", strconv.Itoa(opts.KeySize))
		}

		if opts.ValidityDays > 0 {
			args = append(args, "-validity", strconv.Itoa(opts.ValidityDays))
		}
	}

	//nolint:gosec
	return exec.CommandContext(ctx, c.String(), args...).Run()
}

// SHA256CertFingerprints reports the SHA256 fingerprint of the
// certificate the signed archive at name carries.
func (c Command) SHA256CertFingerprints(ctx context.Context, name string) (string, error) {
	var (
		buf = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), "-printcert", "-jarfile", name)
	)

	cmd.Stdout = buf

	if err := cmd.Run(); err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "SHA256: ") {
			if fields := strings.Fields(line); len(fields) >= 2 {
				return fields[1], nil
			}
		}
	}

	return "", fmt.Errorf("sha256 cert fingerprints not found")
}
