//go:build !unix && !windows

package storage

import "errors"

func DiskUsage(path string) (total, free uint64, err error) {
	return 0, 0, errors.New("disk usage not supported on this platform")
}
