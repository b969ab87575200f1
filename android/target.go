package android

import "fmt"

// Target names one CPU/ABI/OS combination native code is compiled for,
// identified by its compiler triple.
type Target string

const (
	TargetArm64V8a Target = "aarch64-linux-android"
	TargetArmV7a   Target = "armv7-linux-androideabi"
	TargetX86      Target = "i686-linux-android"
	TargetX86_64   Target = "x86_64-linux-android"
)

// Targets returns every supported target in a fixed order.
func Targets() []Target {
	return []Target{TargetArm64V8a, TargetArmV7a, TargetX86, TargetX86_64}
}

type UnsupportedTargetError struct {
	Target string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target %s", e.Target)
}

// ParseTarget resolves a target identifier, accepting either the
// compiler triple or the ABI directory name.
func ParseTarget(s string) (Target, error) {
	for _, target := range Targets() {
		if s == string(target) || s == target.ABI() {
			return target, nil
		}
	}

	return "", &UnsupportedTargetError{Target: s}
}

// ABI is the lib/ subdirectory name inside an .apk that
// the target's shared libraries are loaded from.
func (t Target) ABI() string {
	switch t {
	case TargetArm64V8a:
		return "arm64-v8a"
	case TargetArmV7a:
		return "armeabi-v7a"
	case TargetX86:
		return "x86"
	case TargetX86_64:
		return "x86_64"
	}

	return ""
}

// GOARCH is the Go architecture name the target compiles under.
func (t Target) GOARCH() string {
	switch t {
	case TargetArm64V8a:
		return "arm64"
	case TargetArmV7a:
		return "arm"
	case TargetX86:
		return "386"
	case TargetX86_64:
		return "amd64"
	}

	return ""
}

func (t Target) String() string {
	return string(t)
}

// FromABI maps a device-reported ABI back to its target.
func FromABI(abi string) (Target, error) {
	for _, target := range Targets() {
		if target.ABI() == abi {
			return target, nil
		}
	}

	return "", &UnsupportedTargetError{Target: abi}
}
