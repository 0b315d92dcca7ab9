package fwsymregexp

func IsOS(name string) bool {
	return OS.MatchString(name)
}

func IsVersion(name string) bool {
	return Version.MatchString(name)
}
