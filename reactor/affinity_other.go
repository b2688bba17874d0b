//go:build !linux
// +build !linux

// File: reactor/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU pinning is a Linux-only optimization here; elsewhere Pin locks the
// goroutine to its OS thread (done by the caller) but leaves affinity to
// the platform scheduler.

package reactor

import "github.com/momentics/htcore/api"

func pinCurrentThread(_ api.CPUSet) {}
