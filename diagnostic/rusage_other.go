//go:build !linux

package diagnostic

// maxRSSKBytes returns 0 on platforms without a KBytes-denominated
// getrusage. This is ambient exit-summary plumbing, not part of the
// checker's core behavior.
func maxRSSKBytes() int64 {
	return 0
}
