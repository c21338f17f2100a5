//go:build unix

package storage

import "golang.org/x/sys/unix"

// DiskUsage queries statfs for the filesystem holding path. Free space is
// what an unprivileged caller can use.
func DiskUsage(path string) (total, free uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	return uint64(st.Blocks) * bsize, uint64(st.Bavail) * bsize, nil
}
