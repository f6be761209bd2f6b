//go:build unix

package sandbox

import "golang.org/x/sys/unix"

// alias hard-links newPath to oldPath using the raw syscall, the same way
// the teacher's system_unix.go reaches past the stdlib for POSIX-specific
// behavior (there, file group/owner lookups via unix.Stat_t).
func alias(oldPath, newPath string) error {
	return unix.Link(oldPath, newPath)
}
