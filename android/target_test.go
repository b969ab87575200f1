package android

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargetMappings(t *testing.T) {
	t.Parallel()

	var (
		abis    = map[string]struct{}{}
		goarchs = map[string]struct{}{}
	)
	for _, target := range Targets() {
		require.NotEmpty(t, target.ABI(), target)
		require.NotEmpty(t, target.GOARCH(), target)
		abis[target.ABI()] = struct{}{}
		goarchs[target.GOARCH()] = struct{}{}
	}

	require.Len(t, abis, len(Targets()))
	require.Len(t, goarchs, len(Targets()))
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	for _, target := range Targets() {
		parsed, err := ParseTarget(target.String())
		require.NoError(t, err)
		require.Equal(t, target, parsed)

		parsed, err = ParseTarget(target.ABI())
		require.NoError(t, err)
		require.Equal(t, target, parsed)
	}

	_, err := ParseTarget("mips64-linux-android")
	unsupportedErr := &UnsupportedTargetError{}
	require.ErrorAs(t, err, &unsupportedErr)
	require.Equal(t, "mips64-linux-android", unsupportedErr.Target)
}

func TestFromABI(t *testing.T) {
	t.Parallel()

	for _, target := range Targets() {
		parsed, err := FromABI(target.ABI())
		require.NoError(t, err)
		require.Equal(t, target, parsed)
	}

	_, err := FromABI("armeabi")
	unsupportedErr := &UnsupportedTargetError{}
	require.ErrorAs(t, err, &unsupportedErr)
}
