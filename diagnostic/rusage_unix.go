//go:build linux

package diagnostic

import "syscall"

// maxRSSKBytes returns the process's maximum resident set size in
// kilobytes, matching original_source's getrusage(RUSAGE_SELF, ...) call.
func maxRSSKBytes() int64 {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return int64(ru.Maxrss)
}
