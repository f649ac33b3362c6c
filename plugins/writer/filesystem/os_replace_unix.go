//go:build !windows

package filesystem

import "os"

// osReplace: POSIX rename 本身即原子替换。
func osReplace(tmpPath, dest string) error {
	return os.Rename(tmpPath, dest)
}

// syncDir 对父目录 fsync，持久化目录项。
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
