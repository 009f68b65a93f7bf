package main

import (
	"fmt"
	"runtime/debug"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("kata %s\n", version())
	return nil
}

// version reports the module version stamped by the go tool, or "dev".
func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
