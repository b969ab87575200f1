package android

import (
	"fmt"
	"strconv"
)

// SchemaURI is the namespace every android-prefixed attribute lives in.
const SchemaURI = "http://schemas.android.com/apk/res/android"

// SynthesisPolicy carries the manifest-compiler quirks the synthesizer
// honors. They are data rather than constants so the defaults can follow
// the platform and the manifest compiler as they change.
type SynthesisPolicy struct {
	// ExportedMinSDK is the target SDK version at which the platform
	// began requiring activities with intent filters to declare
	// android:exported explicitly.
	ExportedMinSDK int
	// DefaultExported is the value synthesized for android:exported
	// when the configuration leaves it unset at or above ExportedMinSDK.
	DefaultExported bool
	// RequireProviderName rejects queries providers without an
	// android:name, which aapt cannot compile.
	RequireProviderName bool
}

func DefaultSynthesisPolicy() SynthesisPolicy {
	return SynthesisPolicy{
		ExportedMinSDK:      31,
		DefaultExported:     true,
		RequireProviderName: true,
	}
}

// Synthesize deterministically transforms the manifest into its element
// tree. Identical manifests always produce identical trees: every list is
// emitted in declaration order and every optional scalar maps to attribute
// presence, never to an empty attribute.
func Synthesize(m *Manifest, policy SynthesisPolicy) (*Element, error) {
	if err := ValidatePackage(m.Package); err != nil {
		return nil, err
	}

	root := NewElement("manifest").
		Attr("xmlns:android", SchemaURI).
		Attr("package", m.Package)

	if m.SharedUserID != "" {
		root.Attr("android:sharedUserId", m.SharedUserID)
	}

	if m.VersionCode != 0 {
		root.Attr("android:versionCode", strconv.FormatUint(uint64(m.VersionCode), 10))
	}

	if m.VersionName != "" {
		root.Attr("android:versionName", m.VersionName)
	}

	root.Child(synthesizeSDK(m.SDK))

	for _, feature := range m.UsesFeatures {
		e := NewElement("uses-feature")
		if feature.Name != "" {
			e.Attr("android:name", feature.Name)
		}
		if feature.Required != nil {
			e.BoolAttr("android:required", *feature.Required)
		}
		if feature.Version != nil {
			e.Attr("android:glEsVersion", *feature.Version)
		}
		root.Child(e)
	}

	for _, permission := range m.UsesPermissions {
		e := NewElement("uses-permission").Attr("android:name", permission.Name)
		if permission.MaxSDKVersion != nil {
			e.IntAttr("android:maxSdkVersion", *permission.MaxSDKVersion)
		}
		root.Child(e)
	}

	if m.Queries != nil {
		queries, err := synthesizeQueries(m.Queries, policy)
		if err != nil {
			return nil, err
		}
		root.Child(queries)
	}

	application, err := synthesizeApplication(&m.Application, m.SDK, policy)
	if err != nil {
		return nil, err
	}

	return root.Child(application), nil
}

// SynthesizeBytes is Synthesize followed by canonical serialization.
func SynthesizeBytes(m *Manifest, policy SynthesisPolicy) ([]byte, error) {
	root, err := Synthesize(m, policy)
	if err != nil {
		return nil, err
	}

	return root.Bytes()
}

func synthesizeSDK(sdk SDK) *Element {
	e := NewElement("uses-sdk")
	if sdk.MinSDKVersion != nil {
		e.IntAttr("android:minSdkVersion", *sdk.MinSDKVersion)
	}
	if sdk.TargetSDKVersion != nil {
		e.IntAttr("android:targetSdkVersion", *sdk.TargetSDKVersion)
	}
	if sdk.MaxSDKVersion != nil {
		e.IntAttr("android:maxSdkVersion", *sdk.MaxSDKVersion)
	}

	return e
}

func synthesizeQueries(queries *Queries, policy SynthesisPolicy) (*Element, error) {
	e := NewElement("queries")

	for _, provider := range queries.Providers {
		p := NewElement("provider").Attr("android:authorities", provider.Authorities)
		if provider.Name == "" && policy.RequireProviderName {
			return nil, fmt.Errorf("queries provider %q requires a name", provider.Authorities)
		}
		if provider.Name != "" {
			p.Attr("android:name", provider.Name)
		}
		e.Child(p)
	}

	for _, intent := range queries.Intents {
		i := NewElement("intent")
		for _, action := range intent.Actions {
			i.Child(NewElement("action").Attr("android:name", action))
		}
		for _, data := range intent.Data {
			i.Child(synthesizeData(data))
		}
		e.Child(i)
	}

	for _, pkg := range queries.Packages {
		e.Child(NewElement("package").Attr("android:name", pkg.Name))
	}

	return e, nil
}

func synthesizeApplication(app *Application, sdk SDK, policy SynthesisPolicy) (*Element, error) {
	e := NewElement("application")

	if app.Debuggable != nil {
		e.BoolAttr("android:debuggable", *app.Debuggable)
	}
	if app.Theme != "" {
		e.Attr("android:theme", app.Theme)
	}
	if app.Icon != "" {
		e.Attr("android:icon", app.Icon)
	}
	if app.Label != "" {
		e.Attr("android:label", app.Label)
	}
	if app.ExtractNativeLibs != nil {
		e.BoolAttr("android:extractNativeLibs", *app.ExtractNativeLibs)
	}
	if app.UsesCleartextTraffic != nil {
		e.BoolAttr("android:usesCleartextTraffic", *app.UsesCleartextTraffic)
	}

	for _, metadata := range app.MetaData {
		e.Child(synthesizeMetaData(metadata))
	}

	return e.Child(synthesizeActivity(&app.Activity, sdk, policy)), nil
}

func synthesizeActivity(activity *Activity, sdk SDK, policy SynthesisPolicy) *Element {
	e := NewElement("activity")

	if activity.ConfigChanges != nil {
		e.Attr("android:configChanges", *activity.ConfigChanges)
	}
	if activity.Label != "" {
		e.Attr("android:label", activity.Label)
	}
	if activity.LaunchMode != "" {
		e.Attr("android:launchMode", activity.LaunchMode)
	}

	name := activity.Name
	if name == "" {
		name = DefaultActivityName
	}
	e.Attr("android:name", name)

	if activity.Orientation != "" {
		e.Attr("android:screenOrientation", activity.Orientation)
	}

	exported := activity.Exported
	if exported == nil && sdk.TargetSDKVersion != nil && *sdk.TargetSDKVersion >= policy.ExportedMinSDK {
		exported = &policy.DefaultExported
	}
	if exported != nil {
		e.BoolAttr("android:exported", *exported)
	}

	if activity.ResizeableActivity != nil {
		e.BoolAttr("android:resizeableActivity", *activity.ResizeableActivity)
	}
	if activity.AlwaysRetainTaskState != nil {
		e.BoolAttr("android:alwaysRetainTaskState", *activity.AlwaysRetainTaskState)
	}

	for _, metadata := range activity.MetaData {
		e.Child(synthesizeMetaData(metadata))
	}

	for _, filter := range activity.IntentFilters {
		f := NewElement("intent-filter")
		for _, action := range filter.Actions {
			f.Child(NewElement("action").Attr("android:name", action))
		}
		for _, category := range filter.Categories {
			f.Child(NewElement("category").Attr("android:name", category))
		}
		for _, data := range filter.Data {
			f.Child(synthesizeData(data))
		}
		e.Child(f)
	}

	return e
}

func synthesizeMetaData(metadata MetaData) *Element {
	return NewElement("meta-data").
		Attr("android:name", metadata.Name).
		Attr("android:value", metadata.Value)
}

func synthesizeData(data IntentFilterData) *Element {
	e := NewElement("data")
	if data.MimeType != "" {
		e.Attr("android:mimeType", data.MimeType)
	}
	if data.Scheme != "" {
		e.Attr("android:scheme", data.Scheme)
	}
	if data.Host != "" {
		e.Attr("android:host", data.Host)
	}
	if data.Port != "" {
		e.Attr("android:port", data.Port)
	}
	if data.Path != "" {
		e.Attr("android:path", data.Path)
	}
	if data.PathPrefix != "" {
		e.Attr("android:pathPrefix", data.PathPrefix)
	}

	return e
}
