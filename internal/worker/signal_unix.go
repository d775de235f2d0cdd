//go:build unix

package worker

import "syscall"

// syscallSignalZero returns the null signal, used to probe process
// liveness without affecting it (the standard `kill -0` idiom).
func syscallSignalZero() syscall.Signal { return syscall.Signal(0) }
