//go:build windows

package walk

import "os"

// deviceInode has no cheap equivalent via os.FileInfo on Windows without
// opening a handle per entry; symlink-loop tracking is skipped there and
// loops are instead bounded by the filesystem's own reparse-point depth
// limit.
func deviceInode(_ os.FileInfo) (visitKey, bool) {
	return visitKey{}, false
}
