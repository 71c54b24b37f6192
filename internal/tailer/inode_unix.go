//go:build unix

package tailer

import (
	"os"
	"strconv"
	"syscall"
)

// inodeOf returns the platform inode number for info, used to detect log
// rotation (a new file created under the same path gets a new inode).
func inodeOf(info os.FileInfo) string {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	return strconv.FormatUint(uint64(st.Ino), 10)
}
