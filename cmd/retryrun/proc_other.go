//go:build !unix

package main

import "os/exec"

// startInOwnGroup is a no-op where process groups are unavailable; WaitDelay
// still bounds how long Run waits on inherited pipes.
func startInOwnGroup(*exec.Cmd) {}
