//go:build !linux

package affinity

import "fmt"

// setAffinity is a no-op on platforms without a supported pinning
// syscall. Pin's caller treats this as a non-fatal stabilization miss,
// never as a run-ending error.
func setAffinity(cpu int) error {
	return fmt.Errorf("affinity: CPU pinning is not supported on this platform")
}
