package ndk

import (
	"context"
	"debug/elf"
	"fmt"
	"strings"
)

// SymbolPolicy controls what happens to debug symbols in
// compiled shared libraries.
type SymbolPolicy string

const (
	// SymbolPolicyDefault leaves artifacts untouched.
	SymbolPolicyDefault SymbolPolicy = "default"
	// SymbolPolicyStrip removes debug symbol sections in place.
	SymbolPolicyStrip SymbolPolicy = "strip"
	// SymbolPolicySplit removes debug symbol sections in place and
	// writes them to a sidecar file beside the artifact.
	SymbolPolicySplit SymbolPolicy = "split"

	// SidecarExt is the extension of split-out debug symbol files.
	SidecarExt = ".dwarf"
)

func ParseSymbolPolicy(s string) (SymbolPolicy, error) {
	switch SymbolPolicy(s) {
	case "", SymbolPolicyDefault:
		return SymbolPolicyDefault, nil
	case SymbolPolicyStrip:
		return SymbolPolicyStrip, nil
	case SymbolPolicySplit:
		return SymbolPolicySplit, nil
	}

	return "", fmt.Errorf("unknown symbol policy %q", s)
}

func (p SymbolPolicy) String() string {
	return string(p)
}

// Stripper removes debug symbols from a shared library, optionally
// splitting them out to a sidecar first.
type Stripper interface {
	// Strip removes debug symbol sections from lib in place.
	Strip(ctx context.Context, lib string) error
	// Split writes lib's debug symbol sections to sidecar.
	Split(ctx context.Context, lib, sidecar string) error
}

// HasDebugInfo reports whether the ELF shared library at name carries
// debug symbol sections.
func HasDebugInfo(name string) (bool, error) {
	f, err := elf.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	for _, section := range f.Sections {
		if strings.HasPrefix(section.Name, ".debug_") || section.Name == ".symtab" {
			return true, nil
		}
	}

	return false, nil
}

// apply runs the policy against lib, returning the sidecar
// path when one was written. Libraries without debug symbols
// pass through untouched under every policy.
func (p SymbolPolicy) apply(ctx context.Context, stripper Stripper, hasDebugInfo func(string) (bool, error), lib string) (string, error) {
	if p == SymbolPolicyDefault {
		return "", nil
	}

	present, err := hasDebugInfo(lib)
	if err != nil {
		return "", err
	} else if !present {
		return "", nil
	}

	sidecar := ""
	if p == SymbolPolicySplit {
		sidecar = lib + SidecarExt
		if err := stripper.Split(ctx, lib, sidecar); err != nil {
			return "", err
		}
	}

	return sidecar, stripper.Strip(ctx, lib)
}
