//go:build !windows

package debug

import "errors"

func processRSS() (uint64, error) {
	return 0, errors.New("working set query not supported on this platform")
}
