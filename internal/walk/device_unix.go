//go:build !windows

package walk

import (
	"os"
	"syscall"
)

// deviceInode extracts the (device, inode) pair used to detect symlink
// loops. ok is false when the platform cannot provide one, in which case
// the caller treats every directory as unvisited (best-effort).
func deviceInode(info os.FileInfo) (visitKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return visitKey{}, false
	}
	return visitKey{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true
}
