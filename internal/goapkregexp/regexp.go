package goapkregexp

import "regexp"

var (
	// PackageName matches a reverse-domain Android package identifier:
	// two or more dot-separated segments, each starting with a letter.
	PackageName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)+$`)
	Profile     = regexp.MustCompile(`^[a-zA-Z0-9-_]{1,32}$`)
	PortSpec    = regexp.MustCompile(`^(tcp|localabstract|localreserved|localfilesystem):\S+$`)

	APK = regexp.MustCompile(`(?i)^[\w/.-]+\.apk$`)
)
