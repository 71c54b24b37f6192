//go:build !unix

package tailer

import "os"

// inodeOf has no portable equivalent outside unix-like platforms; rotation
// detection there falls back to the size/truncation check alone.
func inodeOf(info os.FileInfo) string {
	return ""
}
