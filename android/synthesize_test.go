package android

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func testManifest() *Manifest {
	return &Manifest{
		Package:     "com.foo.bar",
		VersionCode: 16777472,
		VersionName: "0.1.0",
		SDK: SDK{
			MinSDKVersion:    intPtr(23),
			TargetSDKVersion: intPtr(30),
		},
		UsesPermissions: []Permission{
			{Name: "android.permission.INTERNET"},
			{Name: "android.permission.WRITE_EXTERNAL_STORAGE", MaxSDKVersion: intPtr(18)},
			{Name: "android.permission.VIBRATE"},
		},
		Application: Application{
			Label: "bar",
			Activity: Activity{
				ConfigChanges: strPtr(DefaultConfigChanges),
				IntentFilters: []IntentFilter{
					{
						Actions:    []string{"android.intent.action.MAIN"},
						Categories: []string{"android.intent.category.LAUNCHER"},
					},
				},
			},
		},
	}
}

func TestSynthesizeDeterminism(t *testing.T) {
	t.Parallel()

	a, err := SynthesizeBytes(testManifest(), DefaultSynthesisPolicy())
	require.NoError(t, err)

	b, err := SynthesizeBytes(testManifest(), DefaultSynthesisPolicy())
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestSynthesizeManifestContents(t *testing.T) {
	t.Parallel()

	contents, err := SynthesizeBytes(testManifest(), DefaultSynthesisPolicy())
	require.NoError(t, err)
	xml := string(contents)

	require.Contains(t, xml, `package="com.foo.bar"`)
	require.Contains(t, xml, `android:versionCode="16777472"`)
	require.Contains(t, xml, `android:versionName="0.1.0"`)
	require.Contains(t, xml, `android:minSdkVersion="23"`)
	require.Contains(t, xml, `android:targetSdkVersion="30"`)
	require.Contains(t, xml, `android:name="android.app.NativeActivity"`)
	require.Contains(t, xml, `android:name="android.intent.action.MAIN"`)
	require.Contains(t, xml, `android:name="android.intent.category.LAUNCHER"`)
	require.NotContains(t, xml, `android:sharedUserId`)
}

func TestSynthesizePermissionMultiplicity(t *testing.T) {
	t.Parallel()

	contents, err := SynthesizeBytes(testManifest(), DefaultSynthesisPolicy())
	require.NoError(t, err)
	xml := string(contents)

	require.Equal(t, 3, strings.Count(xml, "<uses-permission"))

	// Declaration order survives into the document.
	internet := strings.Index(xml, "android.permission.INTERNET")
	storage := strings.Index(xml, "android.permission.WRITE_EXTERNAL_STORAGE")
	vibrate := strings.Index(xml, "android.permission.VIBRATE")
	require.Less(t, internet, storage)
	require.Less(t, storage, vibrate)

	// The ceiling rides along only on the permission that declares it.
	require.Equal(t, 1, strings.Count(xml, `android:maxSdkVersion="18"`))
}

func TestSynthesizeExportedDefaulting(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name      string
		targetSDK int
		exported  *bool
		want      string
	}{
		{name: "defaulted at 31", targetSDK: 31, want: `android:exported="true"`},
		{name: "absent below 31", targetSDK: 30, want: ""},
		{name: "explicit wins", targetSDK: 31, exported: boolPtr(false), want: `android:exported="false"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			manifest := testManifest()
			manifest.SDK.TargetSDKVersion = intPtr(tc.targetSDK)
			manifest.Application.Activity.Exported = tc.exported

			contents, err := SynthesizeBytes(manifest, DefaultSynthesisPolicy())
			require.NoError(t, err)

			if tc.want == "" {
				require.NotContains(t, string(contents), "android:exported")
			} else {
				require.Contains(t, string(contents), tc.want)
			}
		})
	}
}

func TestSynthesizeInvalidPackage(t *testing.T) {
	t.Parallel()

	manifest := testManifest()
	manifest.Package = "no-dots"

	_, err := Synthesize(manifest, DefaultSynthesisPolicy())
	invalidErr := &InvalidPackageNameError{}
	require.ErrorAs(t, err, &invalidErr)
	require.Equal(t, "no-dots", invalidErr.Package)
}

func TestSynthesizeQueriesProviderRequiresName(t *testing.T) {
	t.Parallel()

	manifest := testManifest()
	manifest.Queries = &Queries{
		Providers: []QueryProvider{{Authorities: "com.foo.provider"}},
	}

	_, err := Synthesize(manifest, DefaultSynthesisPolicy())
	require.Error(t, err)

	manifest.Queries.Providers[0].Name = "com.foo.Provider"
	contents, err := SynthesizeBytes(manifest, DefaultSynthesisPolicy())
	require.NoError(t, err)
	require.Contains(t, string(contents), `android:authorities="com.foo.provider"`)
}

func TestSanitizePackage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "com_foo_bar", SanitizePackage("com.foo.bar"))
	require.Equal(t, "com_foo_bar_baz", SanitizePackage("com.foo.bar-baz"))
	require.Equal(t, "already_clean_1", SanitizePackage("already_clean_1"))
}
