package goapkregexp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPackageName(t *testing.T) {
	t.Parallel()

	require.True(t, IsPackageName("com.foo.bar"))
	require.True(t, IsPackageName("io.github.frob_2"))
	require.False(t, IsPackageName("nodots"))
	require.False(t, IsPackageName("com.1foo"))
	require.False(t, IsPackageName("com.foo."))
	require.False(t, IsPackageName(""))
}

func TestIsPortSpec(t *testing.T) {
	t.Parallel()

	require.True(t, IsPortSpec("tcp:8080"))
	require.True(t, IsPortSpec("localabstract:frob"))
	require.False(t, IsPortSpec("8080"))
	require.False(t, IsPortSpec("udp:8080"))
	require.False(t, IsPortSpec("tcp:"))
}

func TestIsAPK(t *testing.T) {
	t.Parallel()

	require.True(t, IsAPK("com_foo_bar.apk"))
	require.True(t, IsAPK("target/dev/apk/frob.APK"))
	require.False(t, IsAPK("frob.zip"))
	require.False(t, IsAPK("has space.apk"))
}

func TestIsProfile(t *testing.T) {
	t.Parallel()

	require.True(t, IsProfile("dev"))
	require.True(t, IsProfile("release-2"))
	require.False(t, IsProfile(""))
	require.False(t, IsProfile("not a profile"))
}
