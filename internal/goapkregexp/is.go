package goapkregexp

func IsPackageName(name string) bool {
	return PackageName.MatchString(name)
}

func IsProfile(name string) bool {
	return Profile.MatchString(name)
}

func IsPortSpec(spec string) bool {
	return PortSpec.MatchString(spec)
}

func IsAPK(name string) bool {
	return APK.MatchString(name)
}
