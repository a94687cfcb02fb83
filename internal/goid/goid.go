// Package goid reports the identity of the running goroutine. It exists for
// demonstrations and tests that show handlers run on the caller's goroutine.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// Current returns the id of the calling goroutine, or 0 if the runtime
// stack header cannot be parsed.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], prefix)
	end := bytes.IndexByte(b, ' ')
	if end <= 0 {
		return 0
	}
	v, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
