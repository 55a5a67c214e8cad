//go:build unix

package frame

import "golang.org/x/sys/unix"

// probeStackLimit reads RLIMIT_STACK so StackGuard can compute a safety
// margin before Go's own runtime stack-growth machinery would otherwise be
// the only thing standing between a runaway recursive evaluation and a
// hard crash. This backs the stack-overflow detection spec.md §7
// describes as "stack-pointer arithmetic" in the source runtime; Go
// doesn't expose the stack pointer, so the margin is tracked by frame
// depth instead (see StackGuard.WouldOverflow), with the rlimit read only used to
// size the configured depth budget at boot.
func probeStackLimit() (bytes uint64, ok bool) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &lim); err != nil {
		return 0, false
	}
	return lim.Cur, true
}
