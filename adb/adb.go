package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every blocking device-bridge operation so
// that an unresponsive device or bridge never hangs an invocation.
const DefaultTimeout = 30 * time.Second

type DeviceUnavailableError struct {
	Err error
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("device unavailable: %s", e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error {
	return e.Err
}

// Command represents the path to an `adb` executable.
type Command string

func (c Command) String() string {
	return string(c)
}

// output runs adb with the given arguments against the optionally
// serial-selected device, bounded by DefaultTimeout. Timeouts and
// failures to reach the bridge surface as DeviceUnavailableError.
func (c Command) output(ctx context.Context, serial string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	if serial != "" {
		args = append([]string{"-s", serial}, args...)
	}

	var (
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)
		//nolint:gosec
		cmd = exec.CommandContext(ctx, c.String(), args...)
	)

	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &DeviceUnavailableError{Err: ctx.Err()}
		}

		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", &DeviceUnavailableError{Err: err}
		}

		if stderr.Len() > 0 {
			return "", fmt.Errorf("adb %s: %w: %s", args[len(args)-1], err, bytes.TrimSpace(stderr.Bytes()))
		}

		return "", fmt.Errorf("adb %s: %w", args[len(args)-1], err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Install installs the archive at apk, replacing any installed build.
func (c Command) Install(ctx context.Context, serial, apk string) error {
	_, err := c.output(ctx, serial, "install", "-r", apk)
	return err
}

// Reverse forwards the device-side socket spec to the host-side one.
func (c Command) Reverse(ctx context.Context, serial, device, host string) error {
	_, err := c.output(ctx, serial, "reverse", device, host)
	return err
}

// ReverseRemove tears down a reverse forwarding rule.
func (c Command) ReverseRemove(ctx context.Context, serial, device string) error {
	_, err := c.output(ctx, serial, "reverse", "--remove", device)
	return err
}

// StartOpts represent flags that can be passed to `adb shell am start`.
type StartOpts struct {
	// Debug makes the activity wait for a debugger to attach
	// before running any application code.
	Debug bool
}

// Start launches the named activity of the package.
func (c Command) Start(ctx context.Context, serial, pkg, activity string, opts *StartOpts) error {
	args := []string{"shell", "am", "start", "-a", "android.intent.action.MAIN", "-n", pkg + "/" + activity}

	if opts != nil && opts.Debug {
		args = append(args, "-D")
	}

	_, err := c.output(ctx, serial, args...)
	return err
}

// ABI reports the device's primary ABI.
func (c Command) ABI(ctx context.Context, serial string) (string, error) {
	return c.output(ctx, serial, "shell", "getprop", "ro.product.cpu.abi")
}

// Pidof reports the pid of the package's process, or an error while
// it is not running.
func (c Command) Pidof(ctx context.Context, serial, pkg string) (string, error) {
	pid, err := c.output(ctx, serial, "shell", "pidof", pkg)
	if err != nil {
		return "", err
	} else if pid == "" {
		return "", fmt.Errorf("no process for package %s", pkg)
	}

	return pid, nil
}

// Logcat starts streaming the given pid's log to stdout and returns
// the running subprocess. It is the one unbounded operation: the
// caller owns the subprocess and kills it when done.
func (c Command) Logcat(ctx context.Context, serial, pid string) (*exec.Cmd, error) {
	args := []string{"logcat", "-v", "color", "--pid", pid}
	if serial != "" {
		args = append([]string{"-s", serial}, args...)
	}

	//nolint:gosec
	cmd := exec.CommandContext(ctx, c.String(), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, cmd.Start()
}
