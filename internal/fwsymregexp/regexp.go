package fwsymregexp

import "regexp"

var (
	OS      = regexp.MustCompile("^[a-z]{1,16}$")
	Version = regexp.MustCompile(`^(latest|all|[0-9]{1,3}(\.[0-9]{1,3}){0,3})$`)
)
