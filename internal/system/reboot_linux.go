//go:build linux

package system

import "golang.org/x/sys/unix"

func reboot() error {
	unix.Sync()
	return unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
}
