package main

import "fmt"

// Run prints build information.
func (v *VersionCmd) Run() error {
	fmt.Printf("siem-collector version %s (commit %s, built %s)\n", version, commit, buildTime)
	return nil
}
