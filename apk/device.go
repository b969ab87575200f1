package apk

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/frantjc/goapk"
	"github.com/frantjc/goapk/adb"
	"github.com/frantjc/goapk/android"
	"github.com/frantjc/goapk/ndk"
)

// Bridge is the device-bridge capability the controller drives.
// Implementations bound their waits and surface unreachable devices
// as adb.DeviceUnavailableError.
type Bridge interface {
	Install(ctx context.Context, apk string) error
	Reverse(ctx context.Context, device, host string) error
	ReverseRemove(ctx context.Context, device string) error
	Start(ctx context.Context, pkg, activity string, debug bool) error
	ABI(ctx context.Context) (string, error)
}

// Debugger attaches a debugger to the package's running process with
// the given symbol search directories loaded.
type Debugger interface {
	Attach(ctx context.Context, pkg string, symbolDirs []string) error
}

// DebuggerFunc adapts a function to Debugger.
type DebuggerFunc func(ctx context.Context, pkg string, symbolDirs []string) error

func (f DebuggerFunc) Attach(ctx context.Context, pkg string, symbolDirs []string) error {
	return f(ctx, pkg, symbolDirs)
}

// ADBBridge binds Bridge to `adb` against one device.
type ADBBridge struct {
	ADB    adb.Command
	Serial string
}

func (b *ADBBridge) Install(ctx context.Context, apk string) error {
	return b.ADB.Install(ctx, b.Serial, apk)
}

func (b *ADBBridge) Reverse(ctx context.Context, device, host string) error {
	return b.ADB.Reverse(ctx, b.Serial, device, host)
}

func (b *ADBBridge) ReverseRemove(ctx context.Context, device string) error {
	return b.ADB.ReverseRemove(ctx, b.Serial, device)
}

func (b *ADBBridge) Start(ctx context.Context, pkg, activity string, debug bool) error {
	return b.ADB.Start(ctx, b.Serial, pkg, activity, &adb.StartOpts{Debug: debug})
}

func (b *ADBBridge) ABI(ctx context.Context) (string, error) {
	return b.ADB.ABI(ctx, b.Serial)
}

// NDKGDBDebugger binds Debugger to the NDK's debugger frontend.
type NDKGDBDebugger struct {
	NDKGDB string
	Serial string
}

func (d *NDKGDBDebugger) Attach(ctx context.Context, pkg string, symbolDirs []string) error {
	args := []string{"--attach", pkg}
	for _, dir := range symbolDirs {
		args = append(args, "--symbol-dir", dir)
	}

	//nolint:gosec
	cmd := exec.CommandContext(ctx, d.NDKGDB, args...)
	if d.Serial != "" {
		cmd.Env = append(cmd.Environ(), "ANDROID_SERIAL="+d.Serial)
	}

	return cmd.Run()
}

// DeviceController installs, runs, and debugs the package on one
// attached device. A controller owns the device connection for the
// duration of an operation; concurrent sessions are not supported.
type DeviceController struct {
	Bridge   Bridge
	Debugger Debugger

	// Package and Activity identify what to launch.
	Package  string
	Activity string
	// Forwards maps device-side socket specs to host-side ones.
	Forwards map[string]string
}

// Install pushes the signed package to the device.
func (d *DeviceController) Install(ctx context.Context, apk string) error {
	return d.Bridge.Install(ctx, apk)
}

// Run establishes the declared reverse port forwards, launches the
// entry activity, runs wait if given, and tears every forwarding rule
// down again. Teardown runs on success, error, and external
// interruption alike: no rule outlives the invocation.
func (d *DeviceController) Run(ctx context.Context, wait func(context.Context) error) error {
	teardown, err := d.forward(ctx)
	defer teardown()
	if err != nil {
		return err
	}

	if err := d.Bridge.Start(ctx, d.Package, d.activity(), false); err != nil {
		return err
	}

	if wait != nil {
		return wait(ctx)
	}

	return nil
}

// Debug determines the device's architecture, locates the matching
// artifact's unstripped library or debug-symbol sidecar, launches the
// activity stopped, and attaches the debugger with those symbols.
func (d *DeviceController) Debug(ctx context.Context, artifacts []ndk.Artifact) error {
	abi, err := d.Bridge.ABI(ctx)
	if err != nil {
		return err
	}

	target, err := android.FromABI(abi)
	if err != nil {
		return err
	}

	var match *ndk.Artifact
	for i, artifact := range artifacts {
		if artifact.Target == target {
			match = &artifacts[i]
		}
	}
	if match == nil {
		return fmt.Errorf("no artifact built for device architecture %s", abi)
	}

	var symbolDirs []string
	switch {
	case match.Sidecar != "":
		symbolDirs = []string{filepath.Dir(match.Sidecar)}
	case match.Policy != ndk.SymbolPolicyStrip:
		symbolDirs = []string{filepath.Dir(match.Lib)}
	default:
		goapk.LoggerFrom(ctx).Info("no debug symbols for " + target.String())
	}

	teardown, err := d.forward(ctx)
	defer teardown()
	if err != nil {
		return err
	}

	if err := d.Bridge.Start(ctx, d.Package, d.activity(), true); err != nil {
		return err
	}

	return d.Debugger.Attach(ctx, d.Package, symbolDirs)
}

func (d *DeviceController) activity() string {
	if d.Activity == "" {
		return android.DefaultActivityName
	}

	return d.Activity
}

// forward establishes every declared forwarding rule in a stable
// order and returns the teardown for the rules that were established.
// The teardown runs under its own context so that rules come down
// even when ctx was canceled by a signal or disconnect.
func (d *DeviceController) forward(ctx context.Context) (func(), error) {
	devices := make([]string, 0, len(d.Forwards))
	for device := range d.Forwards {
		devices = append(devices, device)
	}
	sort.Strings(devices)

	established := []string{}
	teardown := func() {
		ctx := context.WithoutCancel(ctx)
		for i := len(established) - 1; i >= 0; i-- {
			if err := d.Bridge.ReverseRemove(ctx, established[i]); err != nil {
				goapk.LoggerFrom(ctx).Error(err, "removing reverse port forward "+established[i])
			}
		}
	}

	for _, device := range devices {
		if err := d.Bridge.Reverse(ctx, device, d.Forwards[device]); err != nil {
			return teardown, err
		}

		established = append(established, device)
	}

	return teardown, nil
}
