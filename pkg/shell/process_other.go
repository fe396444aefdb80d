//go:build !unix

package shell

import "os/exec"

func killProcessGroupOnCancel(*exec.Cmd) {}
