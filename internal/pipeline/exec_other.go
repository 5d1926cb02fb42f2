//go:build !unix

package pipeline

import "os/exec"

// configureProcess keeps the default cancellation, which kills only the
// direct child. WaitDelay still bounds the wait for forked processes.
func configureProcess(cmd *exec.Cmd) {}
