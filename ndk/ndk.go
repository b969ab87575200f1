package ndk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/frantjc/goapk/android"
)

// Toolchain locates the NDK and SDK installations and the
// external tools inside them.
type Toolchain struct {
	NDKRoot string
	SDKRoot string

	platforms platforms
}

type platforms struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FromEnv discovers the toolchain from the conventional environment
// variables: ANDROID_NDK_ROOT or ANDROID_NDK_HOME for the NDK and
// ANDROID_HOME or ANDROID_SDK_ROOT for the SDK.
func FromEnv() (*Toolchain, error) {
	ndkRoot := os.Getenv("ANDROID_NDK_ROOT")
	if ndkRoot == "" {
		ndkRoot = os.Getenv("ANDROID_NDK_HOME")
	}
	if ndkRoot == "" {
		return nil, fmt.Errorf("ANDROID_NDK_ROOT is not set")
	}

	sdkRoot := os.Getenv("ANDROID_HOME")
	if sdkRoot == "" {
		sdkRoot = os.Getenv("ANDROID_SDK_ROOT")
	}

	tc := &Toolchain{NDKRoot: ndkRoot, SDKRoot: sdkRoot}

	contents, err := os.ReadFile(filepath.Join(ndkRoot, "meta", "platforms.json"))
	if err != nil {
		return nil, fmt.Errorf("read NDK platform metadata: %w", err)
	}

	if err := json.Unmarshal(contents, &tc.platforms); err != nil {
		return nil, fmt.Errorf("read NDK platform metadata: %w", err)
	}

	return tc, nil
}

// PlatformCeiling is the highest platform version the NDK supports.
// Target SDK versions above it get clamped down to it.
func (tc *Toolchain) PlatformCeiling() int {
	return tc.platforms.Max
}

// PlatformFloor is the lowest platform version the NDK supports.
func (tc *Toolchain) PlatformFloor() int {
	return tc.platforms.Min
}

func hostTag() string {
	switch runtime.GOOS {
	case "windows":
		return "windows-x86_64"
	case "darwin":
		return "darwin-x86_64"
	}

	return "linux-x86_64"
}

func exe(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}

	return name
}

func (tc *Toolchain) llvmBin(name string) string {
	return filepath.Join(tc.NDKRoot, "toolchains", "llvm", "prebuilt", hostTag(), "bin", exe(name))
}

// clangTriple is the triple clang drivers are named by. It differs
// from the target identifier only for 32-bit ARM.
func clangTriple(target android.Target) string {
	if target == android.TargetArmV7a {
		return "armv7a-linux-androideabi"
	}

	return target.String()
}

// Clang returns the path of the target- and API-level-specific
// clang driver.
func (tc *Toolchain) Clang(target android.Target, minSDK int) (string, error) {
	if minSDK < tc.platforms.Min {
		minSDK = tc.platforms.Min
	}

	clang := tc.llvmBin(fmt.Sprintf("%s%d-clang", clangTriple(target), minSDK))
	if _, err := os.Stat(clang); err != nil {
		return "", fmt.Errorf("no clang driver for %s at API level %d: %w", target, minSDK, err)
	}

	return clang, nil
}

// Stripper returns the production symbol stripper bound to the
// NDK's llvm-strip and llvm-objcopy.
func (tc *Toolchain) Stripper() Stripper {
	return &llvmStripper{
		strip:   tc.llvmBin("llvm-strip"),
		objcopy: tc.llvmBin("llvm-objcopy"),
	}
}

// buildTool returns the path of a tool from the newest installed
// SDK build-tools, falling back to the bare name so that a tool
// on PATH still resolves without an SDK root.
func (tc *Toolchain) buildTool(name string) string {
	if tc.SDKRoot == "" {
		return exe(name)
	}

	entries, err := os.ReadDir(filepath.Join(tc.SDKRoot, "build-tools"))
	if err != nil || len(entries) == 0 {
		return exe(name)
	}

	versions := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			versions = append(versions, entry.Name())
		}
	}
	if len(versions) == 0 {
		return exe(name)
	}
	sort.Strings(versions)

	return filepath.Join(tc.SDKRoot, "build-tools", versions[len(versions)-1], exe(name))
}

func (tc *Toolchain) AAPT() string {
	return tc.buildTool("aapt")
}

func (tc *Toolchain) Zipalign() string {
	return tc.buildTool("zipalign")
}

func (tc *Toolchain) APKSigner() string {
	return tc.buildTool("apksigner")
}

func (tc *Toolchain) ADB() string {
	if tc.SDKRoot == "" {
		return exe("adb")
	}

	return filepath.Join(tc.SDKRoot, "platform-tools", exe("adb"))
}

func (tc *Toolchain) NDKGDB() string {
	return filepath.Join(tc.NDKRoot, exe("ndk-gdb"))
}

// AndroidJar returns the platform android.jar for the given API level,
// preferring an exact match and otherwise the highest installed level
// at or below it.
func (tc *Toolchain) AndroidJar(api int) (string, error) {
	if tc.SDKRoot == "" {
		return "", fmt.Errorf("android.jar requires ANDROID_HOME to be set")
	}

	for level := api; level >= tc.platforms.Min; level-- {
		jar := filepath.Join(tc.SDKRoot, "platforms", fmt.Sprintf("android-%d", level), "android.jar")
		if _, err := os.Stat(jar); err == nil {
			return jar, nil
		}
	}

	return "", fmt.Errorf("no android.jar found for API level %d or below", api)
}

// run executes cmd, returning its stderr inside the error on failure
// so that tool failures carry their diagnostics. A failure caused by
// cancellation surfaces as the context's error, letting callers tell
// aborted subprocesses from genuinely failed ones.
func run(ctx context.Context, cmd *exec.Cmd) error {
	stderr := new(bytes.Buffer)
	if cmd.Stderr == nil {
		cmd.Stderr = stderr
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if stderr.Len() > 0 {
			return fmt.Errorf("%s: %w: %s", cmd.Args[0], err, bytes.TrimSpace(stderr.Bytes()))
		}

		return fmt.Errorf("%s: %w", cmd.Args[0], err)
	}

	return nil
}
