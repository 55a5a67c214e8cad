//go:build !unix

package frame

// probeStackLimit has no portable rlimit equivalent outside unix; callers
// fall back to StackGuard's conservative default depth budget.
func probeStackLimit() (bytes uint64, ok bool) { return 0, false }
