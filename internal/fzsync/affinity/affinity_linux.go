//go:build linux

package affinity

import "golang.org/x/sys/unix"

// setAffinity pins the calling OS thread to the given CPU via
// sched_setaffinity(2).
func setAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
