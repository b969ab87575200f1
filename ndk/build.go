package ndk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/frantjc/goapk/android"
	"golang.org/x/sync/errgroup"
)

// Artifact is the outcome of compiling one target: the shared library
// on disk and, under the split policy, its debug-symbol sidecar.
type Artifact struct {
	Target  android.Target
	Lib     string
	Policy  SymbolPolicy
	Sidecar string
}

// BuildError aggregates every failed target of one build set.
type BuildError struct {
	Targets []android.Target
	Errs    []error
}

func (e *BuildError) Error() string {
	names := make([]string, len(e.Targets))
	for i, target := range e.Targets {
		names[i] = target.String()
	}

	return fmt.Sprintf("build failed for %s: %s", strings.Join(names, ", "), errors.Join(e.Errs...))
}

func (e *BuildError) Unwrap() []error {
	return e.Errs
}

// Builder compiles every target of a build set and applies the
// debug-symbol policy to each artifact.
type Builder struct {
	Compiler Compiler
	Stripper Stripper
	Policy   SymbolPolicy
	MinSDK   int
	// Limit caps concurrent compiles. Zero means NumCPU.
	Limit int
	// DebugInfo probes an artifact for debug symbols before the
	// policy touches it. Nil means HasDebugInfo.
	DebugInfo func(string) (bool, error)
}

// Build compiles all targets concurrently. The first failure cancels
// the remaining compiles; Build still waits for every in-flight compile
// to terminate, discards any artifacts the successful targets produced,
// and reports every failed target in one BuildError. On success the
// artifacts are returned in target order.
func (b *Builder) Build(ctx context.Context, targets []android.Target) ([]Artifact, error) {
	var (
		g, gctx   = errgroup.WithContext(ctx)
		artifacts = make([]Artifact, len(targets))
		failures  = make([]error, len(targets))
		limit     = b.Limit
		debugInfo = b.DebugInfo
	)

	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if debugInfo == nil {
		debugInfo = HasDebugInfo
	}
	g.SetLimit(limit)

	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			lib, err := b.Compiler.Compile(gctx, target, b.MinSDK)
			if err != nil {
				failures[i] = err
				return err
			}

			// Recorded before the policy runs so that the discard
			// loop covers this library even when the policy fails.
			artifacts[i] = Artifact{
				Target: target,
				Lib:    lib,
				Policy: b.Policy,
			}

			sidecar, err := b.Policy.apply(gctx, b.Stripper, debugInfo, lib)
			if err != nil {
				failures[i] = err
				return err
			}

			artifacts[i].Sidecar = sidecar

			return nil
		})
	}

	// The join point: every outcome is in before deciding.
	_ = g.Wait()

	var (
		buildErr = &BuildError{}
		failed   = false
	)
	for i, target := range targets {
		err := failures[i]
		if err == nil {
			continue
		}

		failed = true
		if !errors.Is(err, context.Canceled) {
			buildErr.Targets = append(buildErr.Targets, target)
			buildErr.Errs = append(buildErr.Errs, fmt.Errorf("%s: %w", target, err))
		}
	}

	if failed || gctx.Err() != nil {
		// No partial build sets: artifacts of targets that did
		// succeed are not kept around.
		for _, artifact := range artifacts {
			if artifact.Lib != "" {
				_ = os.Remove(artifact.Lib)
			}
			if artifact.Sidecar != "" {
				_ = os.Remove(artifact.Sidecar)
			}
		}

		if len(buildErr.Targets) == 0 {
			// Aborted from the outside rather than by a failed target.
			return nil, context.Cause(gctx)
		}

		return nil, buildErr
	}

	return artifacts, nil
}
