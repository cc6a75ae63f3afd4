// Package goid identifies the calling goroutine.
//
// Goroutines are the unit of execution that owns a TLS region, so the
// goroutine ID is the thread identity used throughout the engine. The ID is
// parsed from the first line of runtime.Stack, which is stable across Go
// versions and architectures.
package goid

import "runtime"

// Current returns the calling goroutine's ID, or 0 if it cannot be parsed.
func Current() int64 {
	// "goroutine 123 [running]:" fits comfortably.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return Parse(buf[:n])
}

// Parse extracts the goroutine ID from stack trace bytes of the form
// "goroutine 123 [running]:...". Returns 0 if the format is not recognised.
func Parse(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	digits := 0
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
		digits++
	}
	if digits == 0 {
		return 0
	}
	return id
}
