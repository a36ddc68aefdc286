// SPDX-License-Identifier: EPL-2.0

//go:build linux

package rtmix

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// realtimeNice is the nice value asked for on the mixing thread.
const realtimeNice = -11

// raisePriority lowers the nice value of the calling OS thread. It needs
// CAP_SYS_NICE or a permissive RLIMIT_NICE.
func raisePriority() error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), realtimeNice); err != nil {
		return fmt.Errorf("setpriority: %w", err)
	}
	return nil
}
